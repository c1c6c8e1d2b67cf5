// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package crc32combine implements the CRC-32 combine operation that lets
// a writer derive CRC(A || B) from CRC(A), CRC(B), and len(B) without
// ever seeing the concatenated bytes. It is built straight from the GF(2)
// polynomial algebra that zlib's crc32_combine is built on.
package crc32combine

// gf2Matrix is a square matrix over GF(2), one bit of each row packed per
// uint32 column, used to represent "multiply the CRC state by x^n".
type gf2Matrix [32]uint32

// gf2MatrixTimes multiplies a GF(2) vector by a GF(2) matrix.
func gf2MatrixTimes(mat *gf2Matrix, vec uint32) uint32 {
	var sum uint32
	for n := 0; vec != 0; n++ {
		if vec&1 != 0 {
			sum ^= mat[n]
		}
		vec >>= 1
	}
	return sum
}

// gf2MatrixSquare computes square = mat * mat over GF(2).
func gf2MatrixSquare(square, mat *gf2Matrix) {
	for n := range mat {
		square[n] = gf2MatrixTimes(mat, mat[n])
	}
}

// Combine returns the CRC-32 (IEEE polynomial, as produced by
// hash/crc32.ChecksumIEEE / crc32.IEEE) of the concatenation of a byte
// sequence A and a byte sequence B, given only crcA := CRC-32(A), crcB :=
// CRC-32(B), and lenB := len(B). It runs in O(log lenB), the entire
// reason the writer never needs to see decompressed bytes.
func Combine(crcA, crcB uint32, lenB int64) uint32 {
	if lenB == 0 {
		return crcA
	}

	// Build the operator that advances a CRC by one zero bit.
	var odd, even gf2Matrix
	odd[0] = 0xedb88320 // CRC-32 (IEEE) polynomial, reflected
	row := uint32(1)
	for n := 1; n < 32; n++ {
		odd[n] = row
		row <<= 1
	}

	gf2MatrixSquare(&even, &odd) // even = x^2
	gf2MatrixSquare(&odd, &even) // odd = x^4

	// Apply the zero-operator len(B) times via square-and-multiply,
	// alternating between the even/odd matrices the way zlib's
	// crc32_combine_ does, to avoid needing more than two matrices.
	crc1, crc2 := crcA, crcB
	n := uint64(lenB)
	for {
		gf2MatrixSquare(&even, &odd)
		if n&1 != 0 {
			crc1 = gf2MatrixTimes(&even, crc1)
		}
		n >>= 1
		if n == 0 {
			break
		}

		gf2MatrixSquare(&odd, &even)
		if n&1 != 0 {
			crc1 = gf2MatrixTimes(&odd, crc1)
		}
		n >>= 1
		if n == 0 {
			break
		}
	}

	return crc1 ^ crc2
}
