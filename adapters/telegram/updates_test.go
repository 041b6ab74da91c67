package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elum-utils/moderator/models"
)

const getMePayload = `{"ok":true,"result":{"id":99,"is_bot":true,"first_name":"Mod","username":"ModBot"}}`

const updatesPayload = `{"ok":true,"result":[
 {"update_id":10,"message":{"message_id":1,"from":{"id":5,"first_name":"Eve","username":"eve"},"chat":{"id":-100,"type":"supergroup"},"date":1700000000,"text":"visit t.me/spam"}},
 {"update_id":11,"message":{"message_id":2,"from":{"id":6,"first_name":"Bob","username":"boss"},"chat":{"id":-100,"type":"supergroup"},"date":1700000010,"text":"/mute@modbot @eve","entities":[{"type":"bot_command","offset":0,"length":12}]}},
 {"update_id":12,"message":{"message_id":3,"from":{"id":7,"first_name":"Dan"},"chat":{"id":7,"type":"private"},"date":1700000020,"text":"promo"}},
 {"update_id":13,"message":{"message_id":4,"from":{"id":8,"is_bot":true,"first_name":"Bot"},"chat":{"id":-100,"type":"supergroup"},"date":1700000030,"text":"sale"}},
 {"update_id":15,"message":{"message_id":6,"from":{"id":6,"first_name":"Bob","username":"boss"},"chat":{"id":-100,"type":"supergroup"},"date":1700000050,"text":"/mute@some_other_bot @eve","entities":[{"type":"bot_command","offset":0,"length":19}]}},
 {"update_id":14,"message":{"message_id":5,"from":{"id":6,"first_name":"Bob","username":"boss"},"chat":{"id":-100,"type":"group"},"date":1700000040,"text":"/unmute","entities":[{"type":"bot_command","offset":0,"length":7}],"reply_to_message":{"message_id":1,"from":{"id":9,"first_name":"Zed","username":"zed"},"chat":{"id":-100,"type":"group"},"date":1700000000,"text":"hi"}}}
]}`

func TestPollOnceNormalizesUpdates(t *testing.T) {
	api := &fakeAPI{responses: map[string]string{"getUpdates": updatesPayload, "getMe": getMePayload}}
	c := newTestClient(t, api)
	p := NewPoller(c, PollerOptions{Timeout: time.Second})

	var events []models.Event
	if err := p.PollOnce(context.Background(), func(_ context.Context, e models.Event) {
		events = append(events, e)
	}); err != nil {
		t.Fatal(err)
	}
	if p.Offset() != 16 {
		t.Fatalf("unexpected offset: %d", p.Offset())
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 group events, got %d: %+v", len(events), events)
	}

	msg, ok := events[0].(models.TextMessage)
	if !ok || msg.Author.ID != 5 || msg.Chat != -100 || msg.Text != "visit t.me/spam" {
		t.Fatalf("unexpected text message: %+v", events[0])
	}
	if !msg.Date.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("unexpected date: %v", msg.Date)
	}

	cmd, ok := events[1].(models.Command)
	if !ok || cmd.Name != "mute" || len(cmd.Args) != 1 || cmd.Args[0] != "@eve" || cmd.Invoker.ID != 6 {
		t.Fatalf("unexpected command: %+v", events[1])
	}

	unmute, ok := events[2].(models.Command)
	if !ok || unmute.Name != "unmute" || unmute.ReplyTo == nil || unmute.ReplyTo.Author.ID != 9 {
		t.Fatalf("unexpected reply command: %+v", events[2])
	}

	if _, ok := c.Directory().Lookup(-100, "eve"); !ok {
		t.Fatalf("authors must be observed")
	}
	if _, ok := c.Directory().Lookup(-100, "zed"); !ok {
		t.Fatalf("replied-to authors must be observed")
	}

	if got := api.last().Body["offset"].(float64); got != 0 {
		t.Fatalf("first poll must start at offset 0, got %v", got)
	}
	if p.Username() != "modbot" {
		t.Fatalf("unexpected bot username: %q", p.Username())
	}
}

func TestPollOnceFiltersCommandsForOtherBots(t *testing.T) {
	payload := `{"ok":true,"result":[
 {"update_id":1,"message":{"message_id":1,"from":{"id":6,"first_name":"Bob"},"chat":{"id":-100,"type":"supergroup"},"date":1700000000,"text":"/mute@other_bot @spammer","entities":[{"type":"bot_command","offset":0,"length":15}]}},
 {"update_id":2,"message":{"message_id":2,"from":{"id":6,"first_name":"Bob"},"chat":{"id":-100,"type":"supergroup"},"date":1700000000,"text":"/mute@ModBot @spammer","entities":[{"type":"bot_command","offset":0,"length":12}]}},
 {"update_id":3,"message":{"message_id":3,"from":{"id":6,"first_name":"Bob"},"chat":{"id":-100,"type":"supergroup"},"date":1700000000,"text":"/unmute @spammer","entities":[{"type":"bot_command","offset":0,"length":7}]}}
]}`
	api := &fakeAPI{responses: map[string]string{"getUpdates": payload, "getMe": getMePayload}}
	c := newTestClient(t, api)
	p := NewPoller(c, PollerOptions{})

	var cmds []models.Command
	handle := func(_ context.Context, e models.Event) {
		cmds = append(cmds, e.(models.Command))
	}
	if err := p.PollOnce(context.Background(), handle); err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands for this bot, got %+v", cmds)
	}
	if cmds[0].MessageID != 2 || cmds[0].Name != "mute" || cmds[1].Name != "unmute" {
		t.Fatalf("unexpected commands: %+v", cmds)
	}

	if err := p.PollOnce(context.Background(), handle); err != nil {
		t.Fatal(err)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	getMe := 0
	for _, call := range api.calls {
		if call.Path == "/bot123:abc/getMe" {
			getMe++
		}
	}
	if getMe != 1 {
		t.Fatalf("getMe must be called once, got %d", getMe)
	}
}

func TestPollerUsesConfiguredUsername(t *testing.T) {
	payload := `{"ok":true,"result":[
 {"update_id":1,"message":{"message_id":1,"from":{"id":6,"first_name":"Bob"},"chat":{"id":-100,"type":"supergroup"},"date":1700000000,"text":"/mute@modbot @spammer","entities":[{"type":"bot_command","offset":0,"length":12}]}}
]}`
	api := &fakeAPI{responses: map[string]string{"getUpdates": payload}}
	c := newTestClient(t, api)
	p := NewPoller(c, PollerOptions{Username: "@ModBot"})

	n := 0
	if err := p.PollOnce(context.Background(), func(context.Context, models.Event) { n++ }); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected command for configured bot, got %d events", n)
	}
	if len(api.calls) != 1 {
		t.Fatalf("getMe must be skipped when username is configured: %+v", api.calls)
	}
}

func TestPollerRunRetriesAndStops(t *testing.T) {
	api := &fakeAPI{responses: map[string]string{
		"getUpdates": `{"ok":false,"error_code":502,"description":"Bad Gateway"}`,
	}}
	c := newTestClient(t, api)
	p := NewPoller(c, PollerOptions{RetryDelay: 5 * time.Millisecond, Username: "modbot"})

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	err := p.Run(ctx, func(context.Context, models.Event) {})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	api.mu.Lock()
	n := len(api.calls)
	api.mu.Unlock()
	if n < 2 {
		t.Fatalf("expected retries, got %d calls", n)
	}
}

func TestDirectoryForgetAndTTL(t *testing.T) {
	d := NewDirectory(10, 20*time.Millisecond)
	d.Observe(-1, models.User{ID: 1})
	if d.Len() != 0 {
		t.Fatalf("users without handle must be skipped")
	}
	d.Observe(-1, models.User{ID: 1, Username: "One"})
	if u, ok := d.Lookup(-1, "@one"); !ok || u.ID != 1 {
		t.Fatalf("expected lookup hit")
	}
	d.Forget(-1, "one")
	if _, ok := d.Lookup(-1, "one"); ok {
		t.Fatalf("expected forgotten")
	}
	d.Observe(-1, models.User{ID: 1, Username: "one"})
	time.Sleep(60 * time.Millisecond)
	if _, ok := d.Lookup(-1, "one"); ok {
		t.Fatalf("expected expired entry")
	}
}
