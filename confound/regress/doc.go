// Package regress builds the nuisance design matrix of a scan and removes
// it from the signal by ordinary least squares.
//
// Derived regressor families live here too: the 24-parameter motion
// expansion (Friston et al. 1996) and aCompCor components (Muschelli et
// al. 2014).
package regress
