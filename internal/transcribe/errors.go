package transcribe

import apperrors "github.com/killallgit/ingest-platform/pkg/errors"

func unsupportedProviderError(provider string) error {
	return apperrors.ConfigError("transcription.provider", "unsupported provider: "+provider)
}
