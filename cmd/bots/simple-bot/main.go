// simple-bot joins a session over websocket and plays it to the end: it trades with a
// strategy during trading, marks itself done, and rolls whenever the dice come to it.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pterm/pterm"

	"stockticker/internal/bot"
	"stockticker/internal/game/match"
	"stockticker/internal/network"
	"stockticker/internal/session/message"
	"stockticker/internal/utils"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		pterm.Fatal.Println(err)
	}
	strategy, err := bot.New(cfg.Strategy)
	if err != nil {
		pterm.Fatal.Println(err)
	}

	conn, resp, err := websocket.DefaultDialer.Dial(cfg.ServerURL, nil)
	if err != nil {
		if resp != nil {
			pterm.Error.Printfln("handshake status: %s", resp.Status)
		}
		pterm.Fatal.Printfln("connect to %s: %v", cfg.ServerURL, err)
	}
	defer conn.Close()
	pterm.Success.Printfln("Connected to %s", cfg.ServerURL)

	b := &player{conn: conn, strategy: strategy, cfg: cfg}
	if err := b.send(message.TypeJoinGame, message.JoinGame{
		SessionID:  cfg.SessionID,
		PlayerID:   cfg.PlayerID,
		PlayerName: cfg.Name,
	}); err != nil {
		pterm.Fatal.Println(err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	done := make(chan error, 1)
	go func() { done <- b.loop() }()

	select {
	case err := <-done:
		if err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}
	case <-interrupt:
		pterm.Info.Println("Interrupted, leaving the table")
		b.send(message.TypeLeaveGame, nil)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}

type player struct {
	conn     *websocket.Conn
	strategy bot.Strategy
	cfg      *Config

	id        string
	tradedIn  int    // round we last traded in
	rolledFor string // round/turn we last rolled for
	started   bool
}

func (p *player) send(msgType string, payload any) error {
	msg, err := network.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	p.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return p.conn.WriteJSON(msg)
}

// loop reads server events until the game ends or the socket fails.
func (p *player) loop() error {
	for {
		var msg network.Message
		if err := p.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		switch msg.Type {
		case message.TypeJoined:
			var ack message.JoinedPayload
			if err := json.Unmarshal(msg.Payload, &ack); err != nil {
				return err
			}
			p.id = ack.PlayerID
			pterm.Success.Printfln("Seated as %s (%s) in session %s using %s strategy",
				ack.Name, ack.PlayerID, ack.SessionID, p.strategy.Name())
		case message.TypeStateUpdate:
			var s match.Snapshot
			if err := json.Unmarshal(msg.Payload, &s); err != nil {
				return err
			}
			if err := p.onState(s); err != nil {
				return err
			}
		case message.TypeRollResult:
			var r match.RollResult
			if err := json.Unmarshal(msg.Payload, &r); err != nil {
				return err
			}
			printRoll(r)
		case message.TypeGameOver:
			var over message.GameOverPayload
			if err := json.Unmarshal(msg.Payload, &over); err != nil {
				return err
			}
			printRankings(over.FinalRankings, p.id)
			return nil
		case message.TypeError:
			var e struct {
				Message string `json:"message"`
			}
			json.Unmarshal(msg.Payload, &e)
			pterm.Warning.Println(e.Message)
		}
	}
}

func (p *player) onState(s match.Snapshot) error {
	if p.id == "" {
		return nil
	}
	switch s.Status {
	case match.StatusWaiting:
		if !p.started && p.cfg.StartAt > 0 && s.HostID == p.id && len(s.Players) >= p.cfg.StartAt {
			p.started = true
			pterm.Info.Printfln("Starting the game with %d players", len(s.Players))
			return p.send(message.TypeStartGame, message.StartGame{})
		}
	case match.StatusActive:
		me, ok := findMe(s, p.id)
		if !ok || me.HasLeft {
			return nil
		}
		if s.Phase == "trading" && p.tradedIn != s.Round && !me.DoneTrading {
			p.tradedIn = s.Round
			return p.trade(s, me)
		}
		if s.Phase == "dice" && s.CurrentPlayer == p.id {
			key := fmt.Sprintf("%d/%d", s.Round, deref(s.TurnIndex))
			if p.rolledFor != key {
				p.rolledFor = key
				return p.send(message.TypeRollDice, nil)
			}
		}
	}
	return nil
}

func (p *player) trade(s match.Snapshot, me match.PlayerView) error {
	orders := p.strategy.Orders(bot.Holdings{Cash: me.Cash, Portfolio: me.Portfolio, Prices: s.Prices})
	pterm.Info.Printfln("Round %d/%d: cash %s, net worth %s, %d orders",
		s.Round, s.MaxRounds, utils.FormatCents(me.Cash), utils.FormatCents(me.NetWorth), len(orders))
	for _, o := range orders {
		pterm.Printfln("  %s %d %s @ %s", o.Direction, o.Shares, o.Stock, utils.FormatPrice(s.Prices[o.Stock]))
		if err := p.send(message.TypeTrade, message.Trade{Stock: o.Stock, Shares: o.Shares, Direction: o.Direction}); err != nil {
			return err
		}
	}
	return p.send(message.TypeDoneTrading, message.DoneTrading{})
}

func findMe(s match.Snapshot, id string) (match.PlayerView, bool) {
	for _, pv := range s.Players {
		if pv.ID == id {
			return pv, true
		}
	}
	return match.PlayerView{}, false
}

func deref(i *int) int {
	if i == nil {
		return -1
	}
	return *i
}

func printRoll(r match.RollResult) {
	who := r.PlayerID
	if r.Auto {
		who += " (auto)"
	}
	line := fmt.Sprintf("%s rolled %s %s %d -> %s", who, r.Stock, r.Movement, r.Amount, utils.FormatPrice(r.NewPrice))
	if r.CorporateAction != "" {
		line += " [" + r.CorporateAction + "]"
	}
	if !r.Success {
		pterm.Println(pterm.FgDarkGray.Sprint(line + " (no dividend below par)"))
		return
	}
	pterm.Println(pterm.LightCyan(line))
}

func printRankings(rankings []match.Ranking, me string) {
	data := pterm.TableData{{"Rank", "Player", "Net worth", "Cash"}}
	for _, r := range rankings {
		name := r.Name
		if r.PlayerID == me {
			name = pterm.LightGreen(name + " (me)")
		}
		if r.HasLeft {
			name += " (left)"
		}
		data = append(data, []string{
			fmt.Sprint(r.Rank), name, utils.FormatCents(r.NetWorth), utils.FormatCents(r.Cash),
		})
	}
	pterm.DefaultSection.Println("Game over")
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
