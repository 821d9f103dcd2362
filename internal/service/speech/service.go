package speech

import (
	"context"
	"strings"

	speechmodel "github.com/eventdesk/backend/internal/model/speech"
)

// Service fronts the upstream speech provider. It fills configured
// defaults (language, voice, speed) into requests so callers only pass
// what they actually know.
type Service struct {
	config    *speechmodel.Config
	asrClient *ASRClient
	ttsClient *TTSClient
}

// NewService creates the speech service from provider config.
func NewService(config *speechmodel.Config) *Service {
	return &Service{
		config:    config,
		asrClient: NewASRClient(config),
		ttsClient: NewTTSClient(config),
	}
}

// Transcribe converts uploaded audio to text.
func (s *Service) Transcribe(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error) {
	if strings.TrimSpace(req.Language) == "" {
		req.Language = s.config.ASRLanguage
	}
	if strings.TrimSpace(req.Format) == "" {
		req.Format = "webm"
	}
	return s.asrClient.Transcribe(ctx, req)
}

// Synthesize converts reply text to audio.
func (s *Service) Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	if strings.TrimSpace(req.Voice) == "" {
		req.Voice = s.config.TTSVoice
	}
	if strings.TrimSpace(req.Language) == "" {
		req.Language = s.config.TTSLanguage
	}
	if req.Speed == 0 {
		req.Speed = s.config.TTSSpeed
	}
	if req.Volume == 0 {
		req.Volume = s.config.TTSVolume
	}
	return s.ttsClient.Synthesize(ctx, req)
}
