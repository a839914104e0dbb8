// Package vnakit is your toolbox for vector network analyzer
// calibration — from complex matrix primitives to full error-term
// solving and measurement correction.
//
// 🚀 What is vnakit?
//
//	A library that brings together everything VNA error correction needs:
//		• Complex matrices: LU and QR factorizations, exact and least-squares solving
//		• Rational interpolation: smooth frequency-dependent data without ringing
//		• Calibration parameters: known, unknown and statistically bounded standards
//		• Error-term models: T8, U8, TE10, UE10, T16, U16, UE14 and classic E12
//		• Calibration solving: iterative least squares with p-value validation
//		• Measurement correction: apply saved calibrations to raw DUT data
//		• Calibration registry: named calibrations with property trees
//
// ✨ Why choose vnakit?
//
//   - Beginner-friendly – minimal API, clear, intuitive naming
//   - Rock-solid guarantees – explicit errors, validated inputs, in-code docs
//   - Pure Go – no cgo, no bindings to vendor instrument libraries
//   - Extensible – arbitrary rectangular switch matrices and port mappings
//
// Under the hood, everything is organized under five subpackages:
//
//	cmatrix/ — complex matrix type, LU/QR factorization, solvers
//	rfi/     — rational function interpolation over frequency
//	param/   — calibration standard parameters and their lifecycle
//	vnacal/  — error-term layouts, calibration solving and correction
//	vnadata/ — network parameter data with frequencies and reference impedances
//
// Quick calibration sketch:
//
//	S ── O ── M        measure the standards,
//	   ↓↓↓             solve the error terms,
//	[ DUT ]            then correct every later measurement.
//
// Dive into each package's documentation for worked examples.
//
//	go get github.com/vnakit/vnakit
package vnakit
