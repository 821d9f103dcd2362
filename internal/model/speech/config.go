package speech

// Config carries credentials and defaults for the upstream speech
// provider. ASR and TTS share one credential pair.
type Config struct {
	AppID       string `json:"appId"`
	AccessToken string `json:"accessToken"`
	BaseURL     string `json:"baseUrl"`

	ASRModel    string `json:"asrModel"`
	ASRLanguage string `json:"asrLanguage"`

	TTSVoice    string  `json:"ttsVoice"`
	TTSSpeed    float32 `json:"ttsSpeed"`
	TTSVolume   float32 `json:"ttsVolume"`
	TTSLanguage string  `json:"ttsLanguage"`

	// Timeout bounds a single transcribe or synthesize call, in seconds.
	Timeout int `json:"timeout"`
}
