// Package fipfile reads the fixed-width polygon, layer and species files of a FIP
// start run in lock step, one polygon at a time
//
// Layout notes:
// - Every record starts with the 25 column polygon identifier.
// - Layer and species records for a polygon form a group ended by a record whose
//   layer code is Z.
// - Layer code 1 or P is the primary layer and V the veteran layer; other codes are skipped.
package fipfile
