// Package core holds the data model shared by the confound-correction
// stages: frame-major timeseries, named nuisance regressors, frame censor
// masks and the error taxonomy.
//
// Every stage treats these values as immutable. Methods that change shape
// (SelectFrames, Crop, Clone) return fresh copies so no slice is shared
// across stage boundaries.
package core
