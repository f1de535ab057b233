package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
)

// HandleVoices lists the available narration voices.
func (h *Handler) HandleVoices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]interface{}{
		"voices":        h.cfg.Speech.Voices(),
		"current_voice": h.cfg.Speech.CurrentVoice(),
	})
}

type voiceSelectionRequest struct {
	VoiceID string `json:"voice_id"`
}

// HandleSetVoice switches the active narration voice, downloading its model
// if needed.
func (h *Handler) HandleSetVoice(w http.ResponseWriter, r *http.Request) {
	var req voiceSelectionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.cfg.Speech.SetVoice(r.Context(), req.VoiceID); err != nil {
		h.writeError(w, "Failed to set voice: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, map[string]interface{}{
		"success":  true,
		"voice_id": req.VoiceID,
	})
}

type audioGenerationRequest struct {
	Script  string `json:"script"`
	VoiceID string `json:"voice_id,omitempty"`
}

// HandleGenerateAudio synthesizes narration for the posted script text.
func (h *Handler) HandleGenerateAudio(w http.ResponseWriter, r *http.Request) {
	var req audioGenerationRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	audio, err := h.cfg.Speech.Synthesize(r.Context(), req.Script, req.VoiceID)
	if err != nil {
		h.writeError(w, "Audio generation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, audio)
}

// HandleDownloadAudio serves a previously generated narration file.
func (h *Handler) HandleDownloadAudio(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		h.writeError(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	if strings.HasSuffix(strings.ToLower(filename), ".mp3") {
		w.Header().Set("Content-Type", "audio/mpeg")
	} else {
		w.Header().Set("Content-Type", "audio/wav")
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	http.ServeFile(w, r, filepath.Join(h.cfg.AudioDir, filename))
}

// HandleGenerateScriptWithAudio generates a script and, when it survives
// quality control, narration audio for it in one call. Audio failure does
// not fail the request.
func (h *Handler) HandleGenerateScriptWithAudio(w http.ResponseWriter, r *http.Request) {
	var req metadataRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.cfg.Generator.Generate(r.Context(), req.ArtifactType, req.Metadata)
	if err != nil {
		h.writeError(w, "Script and audio generation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"english_script":             result.EnglishScript,
		"arabic_translation_refined": result.ArabicScript,
		"qc_passed":                  result.QCPassed,
		"qc_message":                 result.QCMessage,
		"audio_generated":            false,
		"audio_info":                 nil,
	}

	audio, err := h.cfg.Speech.Synthesize(r.Context(), result.EnglishScript, "")
	if err != nil {
		resp["audio_info"] = map[string]string{"error": "Audio generation failed: " + err.Error()}
	} else {
		resp["audio_generated"] = true
		resp["audio_info"] = audio
	}

	h.writeJSON(w, resp)
}
