package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jinjor/padsynth/src/audio"
	"github.com/jinjor/padsynth/src/config"
	"github.com/jinjor/padsynth/src/sequencing"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	synth, err := audio.NewSynth(ctx, cfg.Options())
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	out, err := audio.NewAudio(synth.Processor(), cfg.BlockSize)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer out.Close()

	h := newHost(ctx, synth, cfg)
	defer h.sequencer.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return out.Start(ctx)
	})
	g.Go(func() error {
		return serveIPC(ctx, cfg.SocketPath, func(ctx context.Context, conn net.Conn) error {
			h.setOutput(conn)
			defer h.setOutput(nil)
			return talk(ctx, conn, h, out)
		})
	})
	if cfg.MIDI >= 0 {
		g.Go(func() error {
			return receiveMidi(ctx, cfg.MIDI, h)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

// serveIPC serves one client at a time until ctx is done. A client may
// reconnect after it disconnected.
func serveIPC(ctx context.Context, path string, serve func(context.Context, net.Conn) error) error {
	os.Remove(path)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", path)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		log.Println("Closing IPC...")
		if err := listener.Close(); err != nil {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(path)
	}()
	for {
		log.Printf("waiting for a client on %s...\n", path)
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		log.Println("client connected")
		err = serve(ctx, conn)
		if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			log.Printf("error while closing connection: %v", cerr)
		}
		if err != nil {
			return err
		}
		log.Println("client disconnected")
	}
}

// talk runs the command reader and the report writer of one connection. Both
// end when the client hangs up.
func talk(ctx context.Context, conn net.Conn, h *host, out *audio.Audio) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		conn.SetReadDeadline(time.Now())
	}()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return receiveCommands(gctx, conn, h)
	})
	g.Go(func() error {
		return sendReports(gctx, h, out)
	})
	return g.Wait()
}

func receiveCommands(ctx context.Context, r io.Reader, h *host) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		command, err := parseCommand(line)
		if err != nil {
			log.Printf("invalid command %q: %v\n", line, err)
			continue
		}
		if err := h.handle(command); err != nil {
			log.Printf("failed to handle %q: %v\n", line, err)
		}
	}
	if ctx.Err() != nil {
		log.Println("Connection interrupted")
		return nil
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func receiveMidi(ctx context.Context, port int, h *host) error {
	ch, err := audio.ListenToMidiIn(ctx, port)
	if err != nil {
		return err
	}
	for data := range ch {
		sequencing.MidiData(data).Dispatch(h)
	}
	log.Println("receiveMidi() ended.")
	return nil
}

// sendReports sends the output spectrum at 60 fps while new frames are played.
func sendReports(ctx context.Context, h *host, out *audio.Audio) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() ended.")
			return nil
		case <-t.C:
			result := out.GetFFT(ctx)
			if result == nil {
				continue
			}
			b.Reset()
			b.WriteString("fft")
			for _, value := range result {
				b.WriteByte(' ')
				b.WriteString(strconv.FormatFloat(value, 'f', 6, 64))
			}
			h.send(b.String())
		}
	}
}
