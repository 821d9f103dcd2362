package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	speechmodel "github.com/eventdesk/backend/internal/model/speech"
)

// TTSClient talks to the provider's unidirectional synthesis stream: one
// JSON request frame in, base64 audio chunks out until the final
// (negative sequence) message.
type TTSClient struct {
	config *speechmodel.Config
	dialer *websocket.Dialer
}

// NewTTSClient creates the synthesis client.
func NewTTSClient(config *speechmodel.Config) *TTSClient {
	return &TTSClient{
		config: config,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 30 * time.Second,
		},
	}
}

type ttsRequestFrame struct {
	User struct {
		UID string `json:"uid,omitempty"`
	} `json:"user,omitempty"`
	ReqParams struct {
		Speaker     string `json:"speaker"`
		Text        string `json:"text"`
		Language    string `json:"language,omitempty"`
		AudioParams struct {
			Format      string  `json:"format"`
			SpeedRatio  float32 `json:"speed_ratio,omitempty"`
			VolumeRatio float32 `json:"volume_ratio,omitempty"`
		} `json:"audio_params"`
	} `json:"req_params"`
}

type ttsServerMessage struct {
	ReqID    string `json:"reqid"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Data     string `json:"data"`
	Addition struct {
		Duration string `json:"duration,omitempty"`
	} `json:"addition,omitempty"`
}

// Synthesize converts reply text into audio bytes.
func (c *TTSClient) Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("TTS text is empty")
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

	wsURL := strings.TrimRight(c.config.BaseURL, "/") + "/tts/unidirectional/stream"
	conn, resp, err := c.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to TTS endpoint: %w", err)
	}
	defer conn.Close()
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	deadline := asrDeadline(ctx, c.config.Timeout)
	_ = conn.SetReadDeadline(deadline)
	_ = conn.SetWriteDeadline(deadline)

	format := strings.TrimSpace(req.Format)
	if format == "" {
		format = "mp3"
	}

	frame := ttsRequestFrame{}
	frame.User.UID = req.SessionID
	frame.ReqParams.Speaker = req.Voice
	frame.ReqParams.Text = req.Text
	frame.ReqParams.Language = req.Language
	frame.ReqParams.AudioParams.Format = format
	frame.ReqParams.AudioParams.SpeedRatio = req.Speed
	frame.ReqParams.AudioParams.VolumeRatio = req.Volume

	if err := conn.WriteJSON(&frame); err != nil {
		return nil, fmt.Errorf("failed to send TTS request frame: %w", err)
	}

	result := &speechmodel.TTSResponse{
		SessionID: req.SessionID,
		Format:    format,
		RequestID: connectID,
		CreatedAt: time.Now().UTC(),
	}

	for {
		var msg ttsServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return nil, fmt.Errorf("failed to read TTS chunk: %w", err)
		}
		if msg.Code != 0 {
			return nil, fmt.Errorf("TTS provider error %d: %s", msg.Code, msg.Message)
		}

		if msg.Data != "" {
			chunk, err := base64.StdEncoding.DecodeString(msg.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode TTS chunk: %w", err)
			}
			result.AudioData = append(result.AudioData, chunk...)
		}
		if msg.Addition.Duration != "" {
			if ms, err := parseDurationMillis(msg.Addition.Duration); err == nil {
				result.Duration = ms
			}
		}

		if msg.Sequence < 0 {
			break
		}
	}

	if len(result.AudioData) == 0 {
		return nil, fmt.Errorf("TTS produced no audio")
	}
	return result, nil
}

func parseDurationMillis(raw string) (int64, error) {
	var ms int64
	if err := json.Unmarshal([]byte(raw), &ms); err != nil {
		return 0, err
	}
	return ms, nil
}
