// dumb-advocate is a scripted trial participant: it joins (or creates) a
// session and submits a canned argument whenever it holds the turn. Useful
// as a smoke client and as the second player during manual testing.
package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"time"

	"github.com/gorilla/websocket"

	"circuit-court/internal/config"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type sessionCreated struct {
	JoinCode string `json:"joinCode"`
}

type roleAssigned struct {
	Role string `json:"role"`
}

type turnUpdate struct {
	ActiveRole string `json:"activeRole"`
	Round      int    `json:"round"`
}

type finalVerdict struct {
	Verdict string `json:"verdict"`
	Winner  string `json:"winner"`
}

var arguments = []string{
	"The access logs speak for themselves: collection continued after consent was withdrawn.",
	"My opponent's reading of the policy ignores the plain language of section 4.",
	"The witness statements are consistent on every material point.",
	"There is no evidence of intent, only of ordinary engineering practice.",
	"The timeline establishes that the data left the premises before any audit.",
	"Industry standards were followed to the letter, as the certification shows.",
}

func main() {
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal(err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.WSURL, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	joinCode := cfg.JoinCode
	if joinCode == "" {
		send(conn, map[string]string{"type": "createSession"})
	} else {
		send(conn, map[string]string{"type": "joinGame", "joinCode": joinCode})
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	role := ""
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case "sessionCreated":
			var created sessionCreated
			if err := json.Unmarshal(env.Data, &created); err != nil {
				continue
			}
			joinCode = created.JoinCode
			log.Printf("created session %s, joining", joinCode)
			send(conn, map[string]string{"type": "joinGame", "joinCode": joinCode})
		case "roleAssigned":
			var assigned roleAssigned
			if err := json.Unmarshal(env.Data, &assigned); err != nil {
				continue
			}
			role = assigned.Role
			log.Printf("assigned role %s", role)
		case "turnUpdate":
			var turn turnUpdate
			if err := json.Unmarshal(env.Data, &turn); err != nil {
				continue
			}
			if turn.ActiveRole != role || role == "" {
				continue
			}
			line := arguments[rnd.Intn(len(arguments))]
			log.Printf("round %d, submitting: %s", turn.Round, line)
			send(conn, map[string]string{"type": "submitEvidence", "joinCode": joinCode, "evidenceText": line})
		case "finalVerdict":
			var verdict finalVerdict
			if err := json.Unmarshal(env.Data, &verdict); err != nil {
				continue
			}
			log.Printf("verdict: %s (winner: %s)", verdict.Verdict, verdict.Winner)
			return
		case "error":
			log.Printf("server error: %s", string(env.Data))
		}
	}
}

func send(conn *websocket.Conn, msg any) {
	payload, _ := json.Marshal(msg)
	_ = conn.WriteMessage(websocket.TextMessage, payload)
}
