// Package command polls the chat bot for operator commands, dispatches them
// to the room actuators and replies to the sender. It is also the alert
// channel used by the alarm engine.
package command
