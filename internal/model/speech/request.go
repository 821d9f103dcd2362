package speech

// ASRRequest asks the upstream provider to transcribe one audio blob.
type ASRRequest struct {
	SessionID string `json:"sessionId"`
	AudioData []byte `json:"-"`
	Format    string `json:"format"`   // mp3, wav, webm, etc.
	Language  string `json:"language"` // hu-HU, en-US, etc.
}

// TTSRequest asks the upstream provider to synthesize speech for text.
type TTSRequest struct {
	SessionID string  `json:"sessionId"`
	Text      string  `json:"text"`
	Voice     string  `json:"voice"`
	Speed     float32 `json:"speed"`  // playback rate 0.5-2.0
	Volume    float32 `json:"volume"` // 0.0-1.0
	Format    string  `json:"format"` // mp3, wav, etc.
	Language  string  `json:"language"`
}
