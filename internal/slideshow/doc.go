// Package slideshow cycles the photo library on the attraction display.
// Each pair is shown twice, original then themed, before moving on. A
// background rescan folds newly arrived pairs into the rotation without
// disturbing the image currently on screen.
package slideshow
