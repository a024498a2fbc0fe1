package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/oshokin/ward-monitor/internal/domain/alarm"
	"github.com/oshokin/ward-monitor/internal/domain/ward"
)

// Command names, matched exactly.
const (
	CommandStart         = "/start"
	CommandStatus        = "/estado"
	CommandData          = "/datos"
	CommandCurtainOpen   = "/cortina_abrir"
	CommandCurtainClose  = "/cortina_cerrar"
	CommandDoorOpen      = "/puerta_abrir"
	CommandDoorClose     = "/puerta_cerrar"
	CommandLampOn        = "/luz_encender"
	CommandLampOff       = "/luz_apagar"
	CommandSilenceBuzzer = "/alarma_silencio"
)

const (
	replyHelp = "🏥 <b>Sistema Domótico Hospitalario Activado</b>\n\n" +
		"🤖 <b>Comandos disponibles:</b>\n" +
		"/estado - Ver estado del sistema\n" +
		"/datos - Datos médicos en tiempo real\n" +
		"/cortina_abrir - Abrir cortina\n" +
		"/cortina_cerrar - Cerrar cortina\n" +
		"/puerta_abrir - Abrir puerta\n" +
		"/puerta_cerrar - Cerrar puerta\n" +
		"/luz_encender - Encender luz\n" +
		"/luz_apagar - Apagar luz\n" +
		"/alarma_silencio - Silenciar alarmas"

	replyCurtainOpened = "✅ Cortina abierta"
	replyCurtainClosed = "✅ Cortina cerrada"
	replyDoorOpened    = "✅ Puerta abierta"
	replyDoorClosed    = "✅ Puerta cerrada"
	replyLampOn        = "✅ Luz encendida"
	replyLampOff       = "✅ Luz apagada"
	replySilenced      = "🔇 Alarmas silenciadas"
	replyUnknown       = "❌ Comando no reconocido. Use /start para ver opciones."
	replyUnauthorized  = "⛔ Chat no autorizado."
)

// commandTable binds the vocabulary to actions.
func (c *Channel) commandTable() map[string]Handler {
	return map[string]Handler{
		CommandStart:  func(context.Context) string { return replyHelp },
		CommandStatus: func(context.Context) string { return c.statusText(c.snapshot()) },
		CommandData:   func(context.Context) string { return dataText(c.snapshot()) },
		CommandCurtainOpen: func(ctx context.Context) string {
			c.actuators.OpenCurtain(ctx)
			return replyCurtainOpened
		},
		CommandCurtainClose: func(ctx context.Context) string {
			c.actuators.CloseCurtain(ctx)
			return replyCurtainClosed
		},
		CommandDoorOpen: func(ctx context.Context) string {
			c.actuators.OpenDoor(ctx)
			return replyDoorOpened
		},
		CommandDoorClose: func(ctx context.Context) string {
			c.actuators.CloseDoor(ctx)
			return replyDoorClosed
		},
		CommandLampOn: func(ctx context.Context) string {
			c.actuators.SetLamp(ctx, true)
			return replyLampOn
		},
		CommandLampOff: func(ctx context.Context) string {
			c.actuators.SetLamp(ctx, false)
			return replyLampOff
		},
		// Silencing stops the buzzer only; the alarm stays latched until the
		// readings recover.
		CommandSilenceBuzzer: func(ctx context.Context) string {
			c.actuators.StopBuzzer(ctx)
			return replySilenced
		},
	}
}

func (c *Channel) statusText(s ward.Snapshot) string {
	var b strings.Builder

	b.WriteString("🏥 <b>ESTADO DEL SISTEMA</b>\n\n<b>Datos Médicos:</b>\n")
	fmt.Fprintf(&b, "• ❤️ Frecuencia cardíaca: %d bpm\n", s.Reading.HeartRateBPM)
	fmt.Fprintf(&b, "• 💨 Oxígeno en sangre: %d%%\n", s.Reading.SpO2Pct)
	fmt.Fprintf(&b, "• 🌡️ Temperatura: %.1f°C\n", s.Reading.TemperatureC)
	fmt.Fprintf(&b, "• 💧 Humedad: %.1f%%\n", s.Reading.HumidityPct)

	b.WriteString("\n<b>Control Ambiente:</b>\n")
	fmt.Fprintf(&b, "• 🪟 Cortina: %s\n", onOff(s.Room.CurtainOpen, "🟢 ABIERTA", "🔴 CERRADA"))
	fmt.Fprintf(&b, "• 🚪 Puerta: %s\n", onOff(s.Room.DoorOpen, "🟢 ABIERTA", "🔴 CERRADA"))
	fmt.Fprintf(&b, "• 💡 Luz: %s\n", onOff(s.Room.LampOn, "🟢 ENCENDIDA", "🔴 APAGADA"))

	status := "✅ NORMAL"

	switch {
	case s.Alarm.Active && !s.Room.BuzzerActive:
		status = "🚨 ALERTA (silenciada)"
	case s.Alarm.Active:
		status = "🚨 ALERTA"
	}

	fmt.Fprintf(&b, "\n<b>Estado:</b> %s\n", status)

	if !s.Alarm.Reasons.Empty() {
		fmt.Fprintf(&b, "<b>Condiciones:</b> %s\n", reasonLabels(s.Alarm.Reasons))
	}

	if s.Simulated {
		b.WriteString("⚠️ <i>Sensores sin respuesta, datos simulados</i>\n")
	}

	fmt.Fprintf(&b, "\n📍 %s\n⏰ <i>Actualizado: %s</i>", c.room, s.TakenAt.Format(ward.TimeLayout))

	return b.String()
}

func dataText(s ward.Snapshot) string {
	var b strings.Builder

	b.WriteString("📊 <b>DATOS EN TIEMPO REAL</b>\n\n")
	fmt.Fprintf(&b, "• ❤️ FC: %d bpm\n", s.Reading.HeartRateBPM)
	fmt.Fprintf(&b, "• 💨 SpO2: %d%%\n", s.Reading.SpO2Pct)
	fmt.Fprintf(&b, "• 🌡️ Temp: %.1f°C\n", s.Reading.TemperatureC)
	fmt.Fprintf(&b, "• 💧 Hum: %.1f%%\n", s.Reading.HumidityPct)

	if s.Simulated {
		b.WriteString("⚠️ <i>Datos simulados</i>\n")
	}

	fmt.Fprintf(&b, "\n⏰ %s", s.TakenAt.Format(ward.TimeLayout))

	return b.String()
}

// StartupText is the banner sent once the bot is verified.
func StartupText(s ward.Snapshot) string {
	return "🏥 <b>Sistema Domótico Hospitalario ACTIVADO</b>\n\n" +
		"🤖 Bot configurado correctamente\n" +
		"📡 Sistema de monitoreo iniciado\n" +
		"⏰ " + s.TakenAt.Format(ward.TimeLayout)
}

//nolint:gochecknoglobals // Read-only lookup table.
var kindLabels = map[alarm.Kind]string{
	alarm.HeartRateLow:    "FC baja",
	alarm.HeartRateHigh:   "FC alta",
	alarm.SpO2Low:         "SpO2 bajo",
	alarm.TemperatureHigh: "temperatura alta",
	alarm.HumidityHigh:    "humedad alta",
}

func reasonLabels(r alarm.Reasons) string {
	kinds := r.Kinds()
	labels := make([]string, 0, len(kinds))

	for _, k := range kinds {
		labels = append(labels, kindLabels[k])
	}

	return strings.Join(labels, ", ")
}

func onOff(v bool, on, off string) string {
	if v {
		return on
	}

	return off
}
