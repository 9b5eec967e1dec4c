package rest_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startDialogue(t *testing.T, s *server, token, id string) {
	t.Helper()
	w := postJSON(s.r, "/api/characters/"+id+"/dialogue/start",
		map[string]string{"graph_id": "elder"},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDialogue_StartShowsFirstNode(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")
	startDialogue(t, s, token, id)

	w := getJSON(s.r, "/api/characters/"+id+"/dialogue", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, true, resp["active"])
	assert.Equal(t, "greet", resp["node_id"])
	assert.Equal(t, "Elder", resp["speaker"])

	// The unavailable choice is hidden.
	choices := resp["choices"].([]interface{})
	require.Len(t, choices, 2)
	assert.Equal(t, "Who are you?", choices[0])
	assert.Equal(t, "Goodbye", choices[1])
}

func TestDialogue_UnknownGraph(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")

	w := postJSON(s.r, "/api/characters/"+id+"/dialogue/start",
		map[string]string{"graph_id": "nobody"},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDialogue_ChooseAndAdvanceToEnd(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")
	startDialogue(t, s, token, id)

	// "Who are you?" → who node.
	w := postJSON(s.r, "/api/characters/"+id+"/dialogue/choose",
		map[string]int{"choice": 0},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "who", decode(t, w)["node_id"])

	// who → farewell (end node, still shown).
	w = postJSON(s.r, "/api/characters/"+id+"/dialogue/advance", nil,
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "farewell", decode(t, w)["node_id"])

	// farewell → conversation over.
	w = postJSON(s.r, "/api/characters/"+id+"/dialogue/advance", nil,
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["active"])
}

func TestDialogue_EmptyNextChoiceEnds(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")
	startDialogue(t, s, token, id)

	// "Goodbye" has an empty next: the conversation ends.
	w := postJSON(s.r, "/api/characters/"+id+"/dialogue/choose",
		map[string]int{"choice": 1},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["active"])
}

func TestDialogue_ChoiceOutOfRange(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")
	startDialogue(t, s, token, id)

	w := postJSON(s.r, "/api/characters/"+id+"/dialogue/choose",
		map[string]int{"choice": 5},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDialogue_AdvanceWithoutActive(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")

	w := postJSON(s.r, "/api/characters/"+id+"/dialogue/advance", nil,
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDialogue_SkipRevealsFullText(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")
	startDialogue(t, s, token, id)

	w := postJSON(s.r, "/api/characters/"+id+"/dialogue/skip", nil,
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Welcome, traveler.", resp["text"])
	assert.Equal(t, true, resp["typing_done"])
}
