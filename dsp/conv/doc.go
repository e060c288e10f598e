// Package conv provides direct linear convolution and smoothing kernels.
//
// Kernels in this package are short (a few voxels to a few dozen samples),
// so everything is evaluated in the time/space domain:
//
//	k, err := conv.GaussianKernel(sigma, 4)
//	y, err := conv.ConvolveMode(x, k, conv.ModeSame)
//
// [ModeSame] keeps the output centred on the input, which is what a
// separable image smoother applies along each axis.
package conv
