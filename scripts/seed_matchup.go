// seed_matchup.go is a standalone script that reads a matchup sheet and
// creates and seeds it through the Barter API.
//
// Sheet format:
//
//	# user_id__league_id__lm_user_id
//	## user
//	- 4046 Patrick Mahomes
//	## leaguemate
//	- 6794 Justin Jefferson
//	## ranking u
//	1. 6794
//	2. 4046
//
// Usage:
//
//	go run scripts/seed_matchup.go -file matchup.md -api http://localhost:8700 -token $BARTER_API_TOKEN
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
)

type player struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name,omitempty"`
	Manager  string `json:"manager"`
}

type rankedItem struct {
	PlayerID string `json:"player_id"`
	Rank     int    `json:"rank"`
}

type sheet struct {
	UserID   string
	LeagueID string
	LMUserID string
	Players  []player
	Rankings map[string][]rankedItem
}

func main() {
	path := flag.String("file", "matchup.md", "path to the matchup sheet")
	apiURL := flag.String("api", "http://localhost:8700", "Barter API base URL")
	token := flag.String("token", "", "API bearer token")
	dryRun := flag.Bool("dry-run", false, "print the parsed sheet without posting")
	flag.Parse()

	s, err := parseSheet(*path)
	if err != nil {
		log.Fatalf("parse %s: %v", *path, err)
	}
	key := s.UserID + "__" + s.LeagueID + "__" + s.LMUserID
	log.Printf("parsed matchup %s: %d players, %d rankings", key, len(s.Players), len(s.Rankings))

	if *dryRun {
		for _, p := range s.Players {
			fmt.Printf("[%s] %s %s\n", p.Manager, p.PlayerID, p.Name)
		}
		for side, ranking := range s.Rankings {
			fmt.Printf("ranking %s: %v\n", side, ranking)
		}
		return
	}

	client := &http.Client{}
	post := func(path string, body interface{}) error {
		data, _ := json.Marshal(body)
		req, err := http.NewRequest("POST", *apiURL+path, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if *token != "" {
			req.Header.Set("Authorization", "Bearer "+*token)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}

	err = post("/api/v1/matchups", map[string]interface{}{
		"user_id":    s.UserID,
		"league_id":  s.LeagueID,
		"lm_user_id": s.LMUserID,
		"players":    s.Players,
	})
	if err != nil {
		log.Fatalf("create matchup: %v", err)
	}

	seeded := 0
	for side, ranking := range s.Rankings {
		if err := post("/api/v1/matchups/"+key+"/"+side+"/seed", map[string]interface{}{"ranking": ranking}); err != nil {
			log.Printf("skip ranking %s: %v", side, err)
			continue
		}
		seeded++
	}

	log.Printf("done: matchup %s created, %d rankings seeded", key, seeded)
}

func parseSheet(path string) (*sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := &sheet{Rankings: make(map[string][]rankedItem)}
	var section string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "## "):
			section = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "## ")))
			continue
		case strings.HasPrefix(line, "# "):
			parts := strings.Split(strings.TrimSpace(strings.TrimPrefix(line, "# ")), "__")
			if len(parts) != 3 {
				return nil, fmt.Errorf("bad matchup header %q", line)
			}
			s.UserID, s.LeagueID, s.LMUserID = parts[0], parts[1], parts[2]
			continue
		case line == "":
			continue
		}

		switch {
		case section == "user" || section == "leaguemate":
			if !strings.HasPrefix(line, "- ") {
				continue
			}
			fields := strings.SplitN(strings.TrimPrefix(line, "- "), " ", 2)
			p := player{PlayerID: fields[0], Manager: "u"}
			if section == "leaguemate" {
				p.Manager = "l"
			}
			if len(fields) == 2 {
				p.Name = fields[1]
			}
			s.Players = append(s.Players, p)

		case strings.HasPrefix(section, "ranking "):
			side := strings.TrimSpace(strings.TrimPrefix(section, "ranking "))
			var rank int
			var id string
			if _, err := fmt.Sscanf(line, "%d. %s", &rank, &id); err != nil {
				return nil, fmt.Errorf("bad ranking line %q: %w", line, err)
			}
			s.Rankings[side] = append(s.Rankings[side], rankedItem{PlayerID: id, Rank: rank})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if s.UserID == "" {
		return nil, fmt.Errorf("missing matchup header")
	}
	return s, nil
}
