package audio

import (
	"context"
	"fmt"
	"log"

	"gitlab.com/gomidi/rtmididrv"
)

// ListenToMidiIn forwards raw messages of MIDI IN port until ctx is done. The
// channel is closed when listening stops.
func ListenToMidiIn(ctx context.Context, port int) (<-chan []byte, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to get MIDI IN: %w", err)
	}
	log.Printf("MIDI IN: %v\n", ins)
	if port < 0 || port >= len(ins) {
		drv.Close()
		return nil, fmt.Errorf("MIDI IN %d not found", port)
	}
	in := ins[port]
	if err := in.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to open MIDI IN: %w", err)
	}
	log.Println("opened " + in.String())

	ch := make(chan []byte, 1024)
	if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
		message := append([]byte(nil), data...)
		select {
		case ch <- message:
		default:
			log.Println("[WARN] MIDI IN buffer is full")
		}
	}); err != nil {
		in.Close()
		drv.Close()
		return nil, fmt.Errorf("failed to set listener: %w", err)
	}
	go func() {
		<-ctx.Done()
		log.Println("stop listening MIDI IN...")
		if err := in.StopListening(); err != nil {
			log.Printf("failed to stop listening: %v\n", err)
		}
		if err := in.Close(); err != nil {
			log.Printf("failed to close MIDI IN: %v\n", err)
		}
		if err := drv.Close(); err != nil {
			log.Printf("failed to close MIDI driver: %v\n", err)
		}
		close(ch)
	}()
	return ch, nil
}
