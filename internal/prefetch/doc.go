// Package prefetch holds decoded slideshow images in a bounded sliding
// window around the playback position. Loads run in the background;
// readers block only when they outrun the window.
package prefetch
