package gcp

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

type StorageMode string

const (
	StorageModeGCS         StorageMode = "gcs"
	StorageModeGCSEmulator StorageMode = "gcs_emulator"
)

var ErrStorageDisabled = errors.New("media storage is not configured")

// StorageConfig describes the single media bucket used for uploads and avatars.
type StorageConfig struct {
	Mode          StorageMode
	Bucket        string
	CDNDomain     string
	EmulatorHost  string
	PublicBaseURL string
}

func (cfg StorageConfig) IsEmulatorMode() bool {
	return cfg.Mode == StorageModeGCSEmulator
}

// Enabled reports whether a bucket is configured. Without one the service
// runs with uploads disabled.
func (cfg StorageConfig) Enabled() bool {
	return strings.TrimSpace(cfg.Bucket) != ""
}

type StorageConfigError struct {
	Var   string
	Value string
	Hint  string
}

func (e *StorageConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s must be set: %s", e.Var, e.Hint)
	}
	return fmt.Sprintf("invalid %s=%q: %s", e.Var, e.Value, e.Hint)
}

// ResolveStorageConfigFromEnv reads OBJECT_STORAGE_MODE, MEDIA_GCS_BUCKET_NAME,
// MEDIA_CDN_DOMAIN, STORAGE_EMULATOR_HOST and OBJECT_STORAGE_PUBLIC_BASE_URL.
// An unset mode with an emulator host selects the emulator.
func ResolveStorageConfigFromEnv() (StorageConfig, error) {
	cfg := StorageConfig{
		Bucket:        strings.TrimSpace(os.Getenv("MEDIA_GCS_BUCKET_NAME")),
		CDNDomain:     strings.TrimSpace(os.Getenv("MEDIA_CDN_DOMAIN")),
		EmulatorHost:  strings.TrimRight(strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")), "/"),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("OBJECT_STORAGE_PUBLIC_BASE_URL")), "/"),
	}

	rawMode := strings.TrimSpace(os.Getenv("OBJECT_STORAGE_MODE"))
	switch StorageMode(strings.ToLower(rawMode)) {
	case "":
		if cfg.EmulatorHost != "" {
			cfg.Mode = StorageModeGCSEmulator
		} else {
			cfg.Mode = StorageModeGCS
		}
	case StorageModeGCS:
		cfg.Mode = StorageModeGCS
	case StorageModeGCSEmulator:
		cfg.Mode = StorageModeGCSEmulator
	default:
		return cfg, &StorageConfigError{Var: "OBJECT_STORAGE_MODE", Value: rawMode, Hint: "allowed: gcs, gcs_emulator"}
	}

	return cfg, ValidateStorageConfig(cfg)
}

func ValidateStorageConfig(cfg StorageConfig) error {
	if cfg.PublicBaseURL != "" && !isAbsoluteURL(cfg.PublicBaseURL) {
		return &StorageConfigError{Var: "OBJECT_STORAGE_PUBLIC_BASE_URL", Value: cfg.PublicBaseURL, Hint: "expected absolute URL like http://localhost:4443"}
	}
	if !cfg.IsEmulatorMode() {
		return nil
	}
	if cfg.EmulatorHost == "" {
		return &StorageConfigError{Var: "STORAGE_EMULATOR_HOST", Hint: "required when OBJECT_STORAGE_MODE=gcs_emulator"}
	}
	if !isAbsoluteURL(cfg.EmulatorHost) {
		return &StorageConfigError{Var: "STORAGE_EMULATOR_HOST", Value: cfg.EmulatorHost, Hint: "expected absolute URL like http://fake-gcs:4443"}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.TrimSpace(u.Scheme) != "" && strings.TrimSpace(u.Host) != ""
}
