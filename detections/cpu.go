package detections

import "golang.org/x/sys/cpu"

// CPUFeatures lists the SIMD extensions ONNX Runtime can use on this host.
func CPUFeatures() []string {
	var features []string
	if cpu.X86.HasAVX512F {
		features = append(features, "avx512f")
	}
	if cpu.X86.HasAVX2 {
		features = append(features, "avx2")
	}
	if cpu.X86.HasFMA {
		features = append(features, "fma")
	}
	if cpu.X86.HasSSE41 {
		features = append(features, "sse4.1")
	}
	if cpu.ARM64.HasASIMD {
		features = append(features, "asimd")
	}
	return features
}
