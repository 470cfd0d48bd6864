package mention

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xaenox/anon-bot/internal/pseudonym"
	"github.com/xaenox/anon-bot/internal/slackapi"
	"go.uber.org/zap/zaptest"
)

type mapResolver map[string]string

func (m mapResolver) LookupUser(ctx context.Context, alias, channelID string, now time.Time) (string, error) {
	if alias == "Broken" {
		return "", errors.New("store down")
	}
	return m[channelID+"/"+alias], nil
}

func testPool(t *testing.T) pseudonym.Pool {
	t.Helper()
	p, err := pseudonym.NewPool([]string{"Lynx", "Otter", "Héron", "Broken"})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNotifier_Aliases(t *testing.T) {
	n := NewNotifier(testPool(t), mapResolver{}, &slackapi.MockAPI{}, zaptest.NewLogger(t))

	got := n.Aliases("@lynx et @Héron, pas @Panda ni email@otter.fr ; encore @LYNX")
	want := []string{"Lynx", "Héron", "Otter"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Aliases = %v, want %v", got, want)
	}
}

func TestNotifier_Notify(t *testing.T) {
	now := time.Now()
	resolver := mapResolver{
		"C1/Lynx":  "UB",
		"C1/Otter": "UA",
	}
	api := &slackapi.MockAPI{}
	n := NewNotifier(testPool(t), resolver, api, zaptest.NewLogger(t))

	res := n.Notify(context.Background(), "UA", "Otter", "C1", "salut @Lynx et @otter, @Héron", now)
	if res.Sent != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v, want one sent", res)
	}

	dms := api.DirectMessages()
	if len(dms) != 1 || dms[0].UserID != "UB" {
		t.Fatalf("unexpected DMs: %+v", dms)
	}
	if !strings.Contains(dms[0].Text, "Otter") || !strings.Contains(dms[0].Text, "salut @Lynx") {
		t.Errorf("notification should carry sender alias and text: %q", dms[0].Text)
	}
}

func TestNotifier_FailuresAreCounted(t *testing.T) {
	resolver := mapResolver{"C1/Lynx": "UB"}
	api := &slackapi.MockAPI{
		SendDirectMessageFunc: func(ctx context.Context, userID, text string) error {
			return errors.New("user_disabled")
		},
	}
	n := NewNotifier(testPool(t), resolver, api, zaptest.NewLogger(t))

	res := n.Notify(context.Background(), "UA", "Otter", "C1", "@Lynx @Broken", time.Now())
	if res.Sent != 0 || res.Failed != 2 {
		t.Errorf("result = %+v, want two failures", res)
	}
}

func TestNotifier_SameUserNotifiedOnce(t *testing.T) {
	// Two aliases colliding on one holder after pool exhaustion.
	resolver := mapResolver{"C1/Lynx": "UB", "C1/Otter": "UB"}
	api := &slackapi.MockAPI{}
	n := NewNotifier(testPool(t), resolver, api, zaptest.NewLogger(t))

	res := n.Notify(context.Background(), "UA", "Héron", "C1", "@Lynx @Otter", time.Now())
	if res.Sent != 1 || len(api.DirectMessages()) != 1 {
		t.Errorf("expected a single DM, got %+v", res)
	}
}
