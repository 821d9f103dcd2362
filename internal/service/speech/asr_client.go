package speech

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	speechmodel "github.com/eventdesk/backend/internal/model/speech"
)

// ASRClient talks to the provider's non-streaming recognition endpoint
// over WebSocket: one JSON config frame, one binary audio frame, then
// JSON result frames until the final (negative sequence) message.
type ASRClient struct {
	config *speechmodel.Config
	dialer *websocket.Dialer
}

// NewASRClient creates the recognition client.
func NewASRClient(config *speechmodel.Config) *ASRClient {
	return &ASRClient{
		config: config,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 30 * time.Second,
		},
	}
}

type asrConfigFrame struct {
	User struct {
		UID string `json:"uid,omitempty"`
	} `json:"user,omitempty"`
	Audio struct {
		Language string `json:"language,omitempty"`
		Format   string `json:"format"`
	} `json:"audio"`
	Request struct {
		ModelName  string `json:"model_name"`
		EnablePunc bool   `json:"enable_punc,omitempty"`
	} `json:"request"`
}

type asrServerMessage struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Result   struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence,omitempty"`
	} `json:"result,omitempty"`
	AudioInfo struct {
		Duration int64 `json:"duration"`
	} `json:"audio_info,omitempty"`
}

// Transcribe converts one uploaded blob into text.
func (c *ASRClient) Transcribe(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error) {
	if len(req.AudioData) == 0 {
		return nil, fmt.Errorf("ASR audio payload is empty")
	}

	appID, token, err := resolveCredentials(c.config)
	if err != nil {
		return nil, err
	}

	connectID := uuid.NewString()
	header := http.Header{}
	header.Set("X-Api-App-Key", appID)
	header.Set("X-Api-Access-Key", token)
	header.Set("X-Api-Connect-Id", connectID)

	wsURL := strings.TrimRight(c.config.BaseURL, "/") + "/sauc/bigmodel_nostream"
	conn, resp, err := c.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ASR endpoint: %w", err)
	}
	defer conn.Close()
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	deadline := asrDeadline(ctx, c.config.Timeout)
	_ = conn.SetReadDeadline(deadline)
	_ = conn.SetWriteDeadline(deadline)

	frame := asrConfigFrame{}
	frame.User.UID = req.SessionID
	frame.Audio.Format = req.Format
	frame.Audio.Language = req.Language
	frame.Request.ModelName = c.config.ASRModel
	frame.Request.EnablePunc = true

	if err := conn.WriteJSON(&frame); err != nil {
		return nil, fmt.Errorf("failed to send ASR config frame: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, req.AudioData); err != nil {
		return nil, fmt.Errorf("failed to send ASR audio frame: %w", err)
	}

	result := &speechmodel.ASRResponse{
		SessionID: req.SessionID,
		RequestID: connectID,
		CreatedAt: time.Now().UTC(),
	}

	for {
		var msg asrServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return nil, fmt.Errorf("failed to read ASR result: %w", err)
		}
		if msg.Code != 0 {
			return nil, fmt.Errorf("ASR provider error %d: %s", msg.Code, msg.Message)
		}

		if msg.Result.Text != "" {
			result.Text = msg.Result.Text
			result.Confidence = msg.Result.Confidence
		}
		if msg.AudioInfo.Duration > 0 {
			result.Duration = msg.AudioInfo.Duration
		}

		// Negative sequence marks the provider's final frame.
		if msg.Sequence < 0 {
			break
		}
	}

	if strings.TrimSpace(result.Text) == "" {
		return nil, fmt.Errorf("ASR produced no transcript")
	}
	return result, nil
}

func asrDeadline(ctx context.Context, timeoutSeconds int) time.Time {
	if deadline, ok := ctx.Deadline(); ok {
		return deadline
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	return time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
}
