package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/ward-monitor/internal/api/telegram"
	"github.com/oshokin/ward-monitor/internal/domain/alarm"
	"github.com/oshokin/ward-monitor/internal/domain/vitals"
	"github.com/oshokin/ward-monitor/internal/domain/ward"
)

const alertChat int64 = 555

var errBoom = errors.New("boom")

// fakeBot serves queued getUpdates batches and records everything sent.
type fakeBot struct {
	batches   [][]telegram.Update
	offsets   []int64
	sent      []telegram.SendMessageRequest
	updateErr error
	sendErr   error
}

func (b *fakeBot) GetMe(context.Context) (*telegram.User, error) {
	return &telegram.User{ID: 1, IsBot: true, FirstName: "WardBot"}, nil
}

func (b *fakeBot) GetUpdates(_ context.Context, offset int64, _ time.Duration) ([]telegram.Update, error) {
	b.offsets = append(b.offsets, offset)

	if b.updateErr != nil {
		return nil, b.updateErr
	}

	if len(b.batches) == 0 {
		return nil, nil
	}

	batch := b.batches[0]
	b.batches = b.batches[1:]

	return batch, nil
}

func (b *fakeBot) SendMessage(_ context.Context, req telegram.SendMessageRequest) error {
	b.sent = append(b.sent, req)
	return b.sendErr
}

func (b *fakeBot) texts() []string {
	out := make([]string, 0, len(b.sent))
	for _, m := range b.sent {
		out = append(out, m.Text)
	}

	return out
}

// fakeActuators records the calls it receives.
type fakeActuators struct {
	calls []string
}

func (a *fakeActuators) OpenCurtain(context.Context) { a.calls = append(a.calls, "curtain_open") }
func (a *fakeActuators) CloseCurtain(context.Context) { a.calls = append(a.calls, "curtain_close") }
func (a *fakeActuators) OpenDoor(context.Context) { a.calls = append(a.calls, "door_open") }
func (a *fakeActuators) CloseDoor(context.Context) { a.calls = append(a.calls, "door_close") }
func (a *fakeActuators) StopBuzzer(context.Context) { a.calls = append(a.calls, "buzzer_stop") }

func (a *fakeActuators) SetLamp(_ context.Context, on bool) {
	if on {
		a.calls = append(a.calls, "lamp_on")
		return
	}

	a.calls = append(a.calls, "lamp_off")
}

// fakeSaver keeps the last saved offset.
type fakeSaver struct {
	saved []int64
	err   error
}

func (s *fakeSaver) Save(_ context.Context, offset int64) error {
	s.saved = append(s.saved, offset)
	return s.err
}

func textUpdate(id, chatID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: id,
		Message: &telegram.Message{
			MessageID: id,
			Chat:      telegram.Chat{ID: chatID},
			Text:      text,
		},
	}
}

type harness struct {
	channel   *Channel
	bot       *fakeBot
	actuators *fakeActuators
	ward      *ward.Ward
}

func newHarness(t *testing.T, offset int64, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		bot:       &fakeBot{},
		actuators: &fakeActuators{},
		ward:      &ward.Ward{Offset: offset},
	}

	snapshot := func() ward.Snapshot {
		return h.ward.Snapshot(time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC))
	}

	c, err := NewChannel(h.bot, h.actuators, snapshot, &h.ward.Offset, alertChat, opts...)
	require.NoError(t, err)

	h.channel = c

	return h
}

func TestNewChannel_RequiresOffset(t *testing.T) {
	t.Parallel()

	_, err := NewChannel(&fakeBot{}, &fakeActuators{}, nil, nil, 1)
	require.ErrorIs(t, err, ErrNoOffset)
}

// TestPoll_DispatchesNewCommand covers a single fresh command: the offset
// advances, the curtain opens and the sender gets a confirmation.
func TestPoll_DispatchesNewCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 100)
	h.bot.batches = [][]telegram.Update{{textUpdate(101, 42, "/cortina_abrir")}}

	n, err := h.channel.Poll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []int64{101}, h.bot.offsets)
	require.Equal(t, int64(101), h.ward.Offset)
	require.Equal(t, []string{"curtain_open"}, h.actuators.calls)
	require.Len(t, h.bot.sent, 1)
	require.Equal(t, int64(42), h.bot.sent[0].ChatID)
	require.Equal(t, replyCurtainOpened, h.bot.sent[0].Text)
	require.Equal(t, telegram.ParseModeHTML, h.bot.sent[0].ParseMode)
}

// TestPoll_RedeliveryIsIgnored replays the same update on the next poll.
func TestPoll_RedeliveryIsIgnored(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 100)
	h.bot.batches = [][]telegram.Update{
		{textUpdate(101, 42, "/luz_encender")},
		{textUpdate(101, 42, "/luz_encender")},
	}

	_, err := h.channel.Poll(context.Background())
	require.NoError(t, err)

	n, err := h.channel.Poll(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, []int64{101, 102}, h.bot.offsets)
	require.Equal(t, []string{"lamp_on"}, h.actuators.calls)
	require.Equal(t, int64(101), h.ward.Offset)
}

// TestPoll_OutOfOrderBatch dispatches both ids once and keeps the maximum.
func TestPoll_OutOfOrderBatch(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 99)
	h.bot.batches = [][]telegram.Update{{
		textUpdate(101, 42, "/puerta_abrir"),
		textUpdate(100, 42, "/luz_apagar"),
		textUpdate(101, 42, "/puerta_abrir"),
	}}

	n, err := h.channel.Poll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, int64(101), h.ward.Offset)
	require.Equal(t, []string{"door_open", "lamp_off"}, h.actuators.calls)
}

func TestPoll_FailureLeavesOffset(t *testing.T) {
	t.Parallel()

	saver := &fakeSaver{}
	h := newHarness(t, 7, WithOffsetSaver(saver))
	h.bot.updateErr = errBoom

	n, err := h.channel.Poll(context.Background())
	require.ErrorIs(t, err, errBoom)
	require.Zero(t, n)
	require.Equal(t, int64(7), h.ward.Offset)
	require.Empty(t, h.actuators.calls)
	require.Empty(t, saver.saved)
}

// TestPoll_Monotonic feeds adversarial batches and checks the offset never
// goes down and no id runs twice.
func TestPoll_Monotonic(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.bot.batches = [][]telegram.Update{
		{textUpdate(5, 1, "/start"), textUpdate(3, 1, "/start")},
		{textUpdate(2, 1, "/start"), textUpdate(5, 1, "/start"), textUpdate(9, 1, "/start")},
		{textUpdate(1, 1, "/start")},
		{textUpdate(9, 1, "/start"), textUpdate(10, 1, "/start"), textUpdate(10, 1, "/start")},
	}

	var (
		last       int64
		dispatched int
	)

	for range 4 {
		n, err := h.channel.Poll(context.Background())
		require.NoError(t, err)
		require.GreaterOrEqual(t, h.ward.Offset, last)

		last = h.ward.Offset
		dispatched += n
	}

	// 5 and 3, then 9, then nothing, then 10.
	require.Equal(t, 4, dispatched)
	require.Equal(t, int64(10), h.ward.Offset)
	require.Len(t, h.bot.sent, 4)
}

func TestPoll_NonTextAdvancesOffset(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 10)
	h.bot.batches = [][]telegram.Update{{
		{UpdateID: 11},
		textUpdate(12, 42, "   "),
	}}

	n, err := h.channel.Poll(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, int64(12), h.ward.Offset)
	require.Empty(t, h.bot.sent)
}

func TestPoll_UnknownAndCaseSensitive(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.bot.batches = [][]telegram.Update{{
		textUpdate(1, 42, "/ESTADO"),
		textUpdate(2, 42, "hola"),
	}}

	n, err := h.channel.Poll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{replyUnknown, replyUnknown}, h.bot.texts())
	require.Empty(t, h.actuators.calls)
}

func TestPoll_Vocabulary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text  string
		call  string
		reply string
	}{
		{CommandCurtainOpen, "curtain_open", replyCurtainOpened},
		{CommandCurtainClose, "curtain_close", replyCurtainClosed},
		{CommandDoorOpen, "door_open", replyDoorOpened},
		{CommandDoorClose, "door_close", replyDoorClosed},
		{CommandLampOn, "lamp_on", replyLampOn},
		{CommandLampOff, "lamp_off", replyLampOff},
		{CommandSilenceBuzzer, "buzzer_stop", replySilenced},
		{CommandStart, "", replyHelp},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, 0)
			h.bot.batches = [][]telegram.Update{{textUpdate(1, 42, "  "+tt.text+"\n")}}

			_, err := h.channel.Poll(context.Background())
			require.NoError(t, err)

			if tt.call == "" {
				require.Empty(t, h.actuators.calls)
			} else {
				require.Equal(t, []string{tt.call}, h.actuators.calls)
			}

			require.Equal(t, []string{tt.reply}, h.bot.texts())
		})
	}
}

func TestPoll_StatusAndData(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.ward.Reading = vitals.Reading{TemperatureC: 24.56, HumidityPct: 71, HeartRateBPM: 45, SpO2Pct: 96}
	h.ward.Alarm = alarm.State{Active: true, Reasons: alarm.NewReasons(alarm.HeartRateLow, alarm.HumidityHigh)}
	h.ward.Room.CurtainOpen = true
	h.ward.Simulated = true

	h.bot.batches = [][]telegram.Update{{
		textUpdate(1, 42, CommandStatus),
		textUpdate(2, 42, CommandData),
	}}

	_, err := h.channel.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, h.bot.sent, 2)

	status := h.bot.sent[0].Text
	require.Contains(t, status, "Frecuencia cardíaca: 45 bpm")
	require.Contains(t, status, "Temperatura: 24.6°C")
	require.Contains(t, status, "Cortina: 🟢 ABIERTA")
	require.Contains(t, status, "Puerta: 🔴 CERRADA")
	require.Contains(t, status, "🚨 ALERTA (silenciada)")
	require.Contains(t, status, "FC baja, humedad alta")
	require.Contains(t, status, "datos simulados")
	require.Contains(t, status, "14/03/2025 09:26:53")

	data := h.bot.sent[1].Text
	require.Contains(t, data, "FC: 45 bpm")
	require.Contains(t, data, "SpO2: 96%")
	require.Contains(t, data, "Hum: 71.0%")
}

func TestPoll_AllowList(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0, WithAllowedChats(42))
	h.bot.batches = [][]telegram.Update{{
		textUpdate(1, 13, CommandDoorOpen),
		textUpdate(2, 42, CommandDoorOpen),
	}}

	n, err := h.channel.Poll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, int64(2), h.ward.Offset)
	require.Equal(t, []string{"door_open"}, h.actuators.calls)
	require.Equal(t, []string{replyUnauthorized, replyDoorOpened}, h.bot.texts())
	require.Equal(t, int64(13), h.bot.sent[0].ChatID)
}

func TestPoll_Checkpoint(t *testing.T) {
	t.Parallel()

	saver := &fakeSaver{err: errBoom}
	h := newHarness(t, 0, WithOffsetSaver(saver))
	h.bot.batches = [][]telegram.Update{
		{textUpdate(4, 42, CommandStart)},
		{},
	}

	_, err := h.channel.Poll(context.Background())
	require.NoError(t, err)

	_, err = h.channel.Poll(context.Background())
	require.NoError(t, err)

	// A failing save is only logged, and an empty poll saves nothing.
	require.Equal(t, []int64{4}, saver.saved)
}

func TestPoll_ReplyFailureStillAdvances(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.bot.sendErr = errBoom
	h.bot.batches = [][]telegram.Update{{textUpdate(1, 42, CommandLampOn)}}

	n, err := h.channel.Poll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, int64(1), h.ward.Offset)
}

func TestNotifyAndVerify(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)

	require.NoError(t, h.channel.Notify(context.Background(), "alerta"))
	require.Equal(t, alertChat, h.bot.sent[0].ChatID)

	name, err := h.channel.VerifyBot(context.Background())
	require.NoError(t, err)
	require.Equal(t, "WardBot", name)

	h.bot.sendErr = errBoom
	require.ErrorIs(t, h.channel.Notify(context.Background(), "alerta"), errBoom)
}

func TestStartupText(t *testing.T) {
	t.Parallel()

	text := StartupText(ward.Snapshot{TakenAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)})
	require.Contains(t, text, "ACTIVADO")
	require.Contains(t, text, "02/01/2025 03:04:05")
}
