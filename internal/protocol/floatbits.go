package protocol

import "math"

func int32BitsToFloat32(n int32) float32 { return math.Float32frombits(uint32(n)) }

func int64BitsToFloat64(n int64) float64 { return math.Float64frombits(uint64(n)) }

func float32ToInt32Bits(f float32) int32 { return int32(math.Float32bits(f)) }

func float64ToInt64Bits(f float64) int64 { return int64(math.Float64bits(f)) }
