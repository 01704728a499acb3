package detections

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

// libraryName returns the ONNX Runtime shared library file for goos.
func libraryName(goos string) string {
	switch goos {
	case "darwin":
		return "libonnxruntime.1.20.0.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so.1.20.0"
	}
}

// RuntimeLibrary locates the ONNX Runtime library for this OS inside dir.
func RuntimeLibrary(dir string) (string, error) {
	path, err := filepath.Abs(filepath.Join(dir, libraryName(runtime.GOOS)))
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("onnx runtime library not found: %w", err)
	}
	return path, nil
}

// VerifyModel returns the absolute path of the model weights.
func VerifyModel(modelPath string) (string, error) {
	path, err := filepath.Abs(filepath.Clean(modelPath))
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("model file not found: %s", path)
	}
	return path, nil
}

func InitRuntime(libPath string) error {
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize onnx environment: %w", err)
	}
	return nil
}

func ShutdownRuntime() error {
	return ort.DestroyEnvironment()
}
