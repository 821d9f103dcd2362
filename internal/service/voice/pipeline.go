package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"

	speechmodel "github.com/eventdesk/backend/internal/model/speech"
	"github.com/eventdesk/backend/internal/service/support"
)

var (
	ErrEmptyAudio          = errors.New("empty audio upload")
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// Transcriber converts an audio blob to text.
type Transcriber interface {
	Transcribe(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error)
}

// Synthesizer converts reply text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error)
}

// TurnResult is the outcome of one voice turn. AudioBase64 is empty when
// synthesis was skipped or failed; the texts are authoritative either way.
type TurnResult struct {
	SessionID   string             `json:"sessionId"`
	UserText    string             `json:"userText"`
	ReplyText   string             `json:"aiText"`
	AudioBase64 string             `json:"audioBase64,omitempty"`
	AudioFormat string             `json:"audioFormat,omitempty"`
	Status      support.TurnStatus `json:"status"`
}

// Pipeline orchestrates one voice turn: transcribe, run the transcript
// through the same escalation path as a typed message, synthesize the
// visitor-facing reply.
//
// Ledger atomicity: a transcription or responder failure appends
// nothing; once the transcript and reply are in, a synthesis failure
// never rolls them back. The slow provider calls run without any
// session lock, so polling stays responsive during processing.
type Pipeline struct {
	transcriber Transcriber
	synthesizer Synthesizer
	support     *support.Service
}

// NewPipeline wires the pipeline. synthesizer may be nil, which turns
// every turn into a text-only exchange.
func NewPipeline(transcriber Transcriber, synthesizer Synthesizer, supportSvc *support.Service) *Pipeline {
	return &Pipeline{
		transcriber: transcriber,
		synthesizer: synthesizer,
		support:     supportSvc,
	}
}

// ProcessTurn runs the full turn for one uploaded blob.
func (p *Pipeline) ProcessTurn(ctx context.Context, sessionID string, audio []byte, format, language string) (*TurnResult, error) {
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	asrResp, err := p.transcriber.Transcribe(ctx, &speechmodel.ASRRequest{
		SessionID: sessionID,
		AudioData: audio,
		Format:    format,
		Language:  language,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	turn, err := p.support.HandleUserTurn(ctx, sessionID, asrResp.Text)
	if err != nil {
		return nil, err
	}

	result := &TurnResult{
		SessionID: sessionID,
		UserText:  asrResp.Text,
		ReplyText: turn.Reply,
		Status:    turn.Status,
	}

	// Nothing to voice while an operator owns the session.
	if turn.Reply == "" || p.synthesizer == nil {
		return result, nil
	}

	ttsResp, err := p.synthesizer.Synthesize(ctx, &speechmodel.TTSRequest{
		SessionID: sessionID,
		Text:      turn.Reply,
	})
	if err != nil {
		// Non-fatal: the texts are already in the ledger.
		log.Printf("[voice] synthesis failed for session=%s: %v", sessionID, err)
		return result, nil
	}

	result.AudioBase64 = base64.StdEncoding.EncodeToString(ttsResp.AudioData)
	result.AudioFormat = ttsResp.Format
	return result, nil
}
