package adminweb

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lueurxax/taxi-order-bot/internal/keywords"
	"github.com/lueurxax/taxi-order-bot/internal/runtimeconfig"
	db "github.com/lueurxax/taxi-order-bot/internal/storage"
)

const groupListLimit = 300

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	//nolint:errcheck // headers are already written, nothing left to do
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"error": code})
}

// writeKeywordError distinguishes caller mistakes from storage trouble:
// an unknown kind is a 400, anything else bubbled up from the store is
// a 500.
func writeKeywordError(w http.ResponseWriter, err error) {
	if errors.Is(err, keywords.ErrInvalidKind) {
		writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	writeError(w, http.StatusInternalServerError, "storage_error")
}

// readPayload accepts JSON bodies and classic form posts.
func readPayload(r *http.Request) (map[string]any, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return nil, err
		}

		return payload, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}

	payload := make(map[string]any, len(r.PostForm))
	for key := range r.PostForm {
		payload[key] = r.PostForm.Get(key)
	}

	return payload, nil
}

func payloadString(payload map[string]any, key string) string {
	value, ok := payload[key]
	if !ok {
		return ""
	}

	text, ok := value.(string)
	if !ok {
		return ""
	}

	return strings.TrimSpace(text)
}

func payloadBool(payload map[string]any, key string, fallback bool) bool {
	value, ok := payload[key]
	if !ok {
		return fallback
	}

	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true
		default:
			return false
		}
	default:
		return fallback
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleListKeywords(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"kinds":       s.keywords.List(),
		"valid_kinds": keywords.Kinds,
	})
}

func (s *Server) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")

		return
	}

	kind := strings.ToLower(payloadString(payload, "kind"))
	value := payloadString(payload, "value")

	if value == "" {
		writeError(w, http.StatusBadRequest, "empty_value")

		return
	}

	added, err := s.keywords.Add(r.Context(), kind, value)
	if err != nil {
		writeKeywordError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "added": added})
}

func (s *Server) handleDeleteKeyword(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")

		return
	}

	kind := strings.ToLower(payloadString(payload, "kind"))
	value := payloadString(payload, "value")

	if value == "" {
		writeError(w, http.StatusBadRequest, "empty_value")

		return
	}

	deleted, err := s.keywords.Delete(r.Context(), kind, value)
	if err != nil {
		writeKeywordError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "deleted": deleted})
}

type privateGroupView struct {
	InviteLink   string `json:"invite_link"`
	Active       bool   `json:"active"`
	SourceChatID *int64 `json:"source_chat_id"`
	LastSeenAt   string `json:"last_seen_at"`
}

type publicGroupView struct {
	PeerID      int64   `json:"peer_id"`
	Username    string  `json:"username"`
	Title       string  `json:"title"`
	Active      bool    `json:"active"`
	Joined      bool    `json:"joined"`
	SourceQuery string  `json:"source_query"`
	LastError   *string `json:"last_error"`
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	privateRows, err := s.database.FetchPrivateInviteRows(r.Context(), groupListLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")

		return
	}

	publicRows, err := s.database.FetchPublicGroups(r.Context(), groupListLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")

		return
	}

	private := make([]privateGroupView, 0, len(privateRows))
	for _, row := range privateRows {
		private = append(private, privateGroupView{
			InviteLink:   row.InviteLink,
			Active:       row.Active,
			SourceChatID: row.SourceChatID,
			LastSeenAt:   row.LastSeenAt.Format("2006-01-02 15:04:05"),
		})
	}

	public := make([]publicGroupView, 0, len(publicRows))
	for _, row := range publicRows {
		public = append(public, publicGroupView{
			PeerID:      row.PeerID,
			Username:    row.Username,
			Title:       row.Title,
			Active:      row.Active,
			Joined:      row.Joined,
			SourceQuery: row.SourceQuery,
			LastError:   row.LastError,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"private": private, "public": public})
}

func (s *Server) handlePrivateAdd(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")

		return
	}

	inviteLink := payloadString(payload, "invite_link")
	if inviteLink == "" {
		writeError(w, http.StatusBadRequest, "empty_invite_link")

		return
	}

	if err := s.database.UpsertPrivateInviteLink(r.Context(), inviteLink, nil, db.SourceAdminManual, true); err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "invite_link": inviteLink})
}

func (s *Server) handlePrivateRemove(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")

		return
	}

	inviteLink := payloadString(payload, "invite_link")
	if inviteLink == "" {
		writeError(w, http.StatusBadRequest, "empty_invite_link")

		return
	}

	removed, err := s.database.DeletePrivateInvite(r.Context(), inviteLink)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "removed": removed})
}

func (s *Server) handlePrivateToggle(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")

		return
	}

	inviteLink := payloadString(payload, "invite_link")
	if inviteLink == "" {
		writeError(w, http.StatusBadRequest, "empty_invite_link")

		return
	}

	active := payloadBool(payload, "active", true)

	updated, err := s.database.SetPrivateInviteActive(r.Context(), inviteLink, active)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "updated": updated, "active": active})
}

func (s *Server) handlePublicAdd(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")

		return
	}

	username := strings.TrimPrefix(payloadString(payload, "username"), "@")
	if username == "" {
		writeError(w, http.StatusBadRequest, "empty_username")

		return
	}

	peerID, err := s.database.UpsertPublicGroupUsername(r.Context(), username, db.SourceAdminManual, db.SourceAdminManual)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "username": username, "peer_id": peerID})
}

func (s *Server) handlePublicRemove(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")

		return
	}

	username := strings.TrimPrefix(payloadString(payload, "username"), "@")
	if username == "" {
		writeError(w, http.StatusBadRequest, "empty_username")

		return
	}

	removed, err := s.database.DeletePublicGroup(r.Context(), username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "removed": removed})
}

func (s *Server) handlePublicToggle(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")

		return
	}

	username := strings.TrimPrefix(payloadString(payload, "username"), "@")
	if username == "" {
		writeError(w, http.StatusBadRequest, "empty_username")

		return
	}

	active := payloadBool(payload, "active", true)

	updated, err := s.database.SetPublicGroupActive(r.Context(), username, active)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "updated": updated, "active": active})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled": true,
		"config":  s.runtime.Values(),
		"keys":    runtimeconfig.Keys,
	})
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload")

		return
	}

	if key := payloadString(payload, "key"); key != "" {
		if _, err := s.runtime.Set(r.Context(), key, payloadString(payload, "value")); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())

			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "config": s.runtime.Values()})

		return
	}

	values, ok := payload["values"].(map[string]any)
	if !ok {
		values = payload
	}

	cleaned := make(map[string]string, len(values))

	for key, value := range values {
		key = strings.TrimSpace(key)
		if !isValidConfigKey(key) {
			continue
		}

		if text, ok := value.(string); ok {
			cleaned[key] = text
		}
	}

	if len(cleaned) == 0 {
		writeError(w, http.StatusBadRequest, "empty_values")

		return
	}

	if _, err := s.runtime.SetMany(r.Context(), cleaned); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "config": s.runtime.Values()})
}

func isValidConfigKey(key string) bool {
	for _, k := range runtimeconfig.Keys {
		if k == key {
			return true
		}
	}

	return false
}
