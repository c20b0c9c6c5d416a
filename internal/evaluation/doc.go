// Package evaluation scores reasoning patterns on multiple-choice datasets.
//
// Every sample runs in its own store under the data directory, named
// "<pattern>-<index>.db", so a run leaves one inspectable conversation per
// sample. A sample that fails is logged and counted as a non-answer; the
// sweep continues.
package evaluation
