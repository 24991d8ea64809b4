package parser

import (
	"fmt"
	"strconv"
)

// ChannelKind classifies a channel label.
type ChannelKind int

const (
	ChannelUnknown ChannelKind = iota
	ChannelReference
	ChannelAmplitude
	ChannelPhase
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelReference:
		return "reference"
	case ChannelAmplitude:
		return "amplitude"
	case ChannelPhase:
		return "phase"
	default:
		return "unknown"
	}
}

// Channel is a parsed channel label. Harmonic is set for amplitude and phase.
type Channel struct {
	Label    string
	Kind     ChannelKind
	Harmonic int
}

// ReferenceLabel is the label of the sweep axis channel.
const ReferenceLabel = "M"

// ParseChannel classifies label against the grammar M | O<digits>A | O<digits>P.
func ParseChannel(label string) Channel {
	ch := Channel{Label: label, Kind: ChannelUnknown, Harmonic: -1}
	if label == ReferenceLabel {
		ch.Kind = ChannelReference
		return ch
	}
	if len(label) < 3 || label[0] != 'O' {
		return ch
	}
	digits := label[1 : len(label)-1]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return ch
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return ch
	}
	switch label[len(label)-1] {
	case 'A':
		ch.Kind = ChannelAmplitude
	case 'P':
		ch.Kind = ChannelPhase
	default:
		return ch
	}
	ch.Harmonic = n
	return ch
}

// AmplitudeLabel and PhaseLabel format the labels for harmonic n.
func AmplitudeLabel(n int) string { return fmt.Sprintf("O%dA", n) }
func PhaseLabel(n int) string     { return fmt.Sprintf("O%dP", n) }
