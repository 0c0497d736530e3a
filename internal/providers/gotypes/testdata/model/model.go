package model

import "time"

type Event struct {
	ID      string        `json:"id"`
	At      time.Time     `json:"at"`
	Timeout time.Duration `json:"timeout,omitempty"`
	Parent  *Event        `json:"parent,omitempty"`
}
