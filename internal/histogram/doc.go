// Package histogram computes per-channel and luma histograms of RGBA images.
package histogram
