// Package fmi1 exports the FMI 1.0 co-simulation C functions from a Go
// c-shared library.
//
// FMI 1.0 symbols carry the model identifier as a prefix. Build with
//
//	CGO_CFLAGS=-DMODEL_IDENTIFIER=oscillator go build -buildmode=c-shared
//
// to export oscillator_fmiDoStep and friends; without the define the
// unprefixed names are exported.
package fmi1
