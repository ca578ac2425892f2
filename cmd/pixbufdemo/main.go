// Command pixbufdemo presents a pixel buffer whose four quadrants cycle
// through red, green, blue and black once per interval.
//
// Host buffers are written directly; device buffers are filled through the
// CUDA accelerator. With -headless, or when no X server is reachable, the
// demo renders offscreen for -frames frames and prints statistics.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/pixbuf"
	"github.com/gogpu/pixbuf/cuda"
	_ "github.com/gogpu/pixbuf/gpu"
	"github.com/gogpu/pixbuf/internal/parallel"
	"github.com/gogpu/pixbuf/x11"
)

func main() {
	var (
		apiName    = flag.String("api", "native", "graphics API: native, vulkan, gl, metal, dx12, software")
		formatName = flag.String("format", "rgba8", "pixel format: rgba8, rgba16, rgba32f")
		domainName = flag.String("domain", "host", "memory domain: host, device")
		width      = flag.Int("width", pixbuf.DefaultWidth, "buffer width")
		height     = flag.Int("height", pixbuf.DefaultHeight, "buffer height")
		winWidth   = flag.Int("window-width", pixbuf.DefaultWindowWidth, "window width")
		winHeight  = flag.Int("window-height", pixbuf.DefaultWindowHeight, "window height")
		frames     = flag.Int("frames", 0, "stop after this many frames (0 runs until the window closes)")
		interval   = flag.Duration("interval", time.Second, "time between colour changes")
		headless   = flag.Bool("headless", false, "render offscreen without a window")
		vsync      = flag.Bool("vsync", true, "wait for vertical blank")
		debug      = flag.Bool("debug", false, "enable validation layers")
		workers    = flag.Int("workers", 0, "fill workers (0 uses GOMAXPROCS, 1 fills inline)")
		verbose    = flag.Bool("v", false, "log to stderr")
	)
	flag.Parse()

	if *verbose {
		pixbuf.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	api, err := pixbuf.ParseGraphicsAPI(*apiName)
	if err != nil {
		log.Fatal(err)
	}
	format, err := pixbuf.ParseFormat(*formatName)
	if err != nil {
		log.Fatal(err)
	}
	domain, err := pixbuf.ParseDomain(*domainName)
	if err != nil {
		log.Fatal(err)
	}

	cfg := pixbuf.DefaultConfig()
	cfg.API = api
	cfg.Buffer = pixbuf.Descriptor{Width: uint32(*width), Height: uint32(*height), Format: format, Domain: domain}
	cfg.Window.Width = *winWidth
	cfg.Window.Height = *winHeight

	opts := []pixbuf.ContextOption{
		pixbuf.WithBufferOptions(pixbuf.WithVSync(*vsync), pixbuf.WithDebug(*debug)),
	}
	if !*headless {
		win, err := x11.NewWindow(cfg.Window)
		if err != nil {
			log.Printf("No window, rendering offscreen: %v", err)
			if *frames == 0 {
				*frames = 300
			}
		} else {
			defer win.Close()
			opts = append(opts, pixbuf.WithWindow(win))
		}
	} else if *frames == 0 {
		*frames = 300
	}

	ctx, err := pixbuf.NewContext(cfg, opts...)
	if err != nil {
		log.Fatalf("Failed to create context: %v", err)
	}
	defer ctx.Close()

	buf := ctx.Buffer()
	log.Printf("Presenting %s on %s, pitch %d, size %d", buf.Descriptor(), buf.API(), buf.Pitch(), buf.Size())

	var staging []byte
	if buf.Interop() == pixbuf.DomainDevice {
		staging = make([]byte, buf.Size())
	}

	var pool *parallel.Pool
	if *workers != 1 {
		pool = parallel.NewPool(*workers)
		defer pool.Close()
	}

	var ov *overlay
	if buf.Format() == pixbuf.FormatRGBAUint8 {
		if ov, err = newOverlay(14); err != nil {
			log.Printf("No overlay: %v", err)
		} else {
			defer ov.Close()
		}
	}

	p := message.NewPrinter(language.English)
	start := time.Now()
	for n := 0; !ctx.ShouldClose() && (*frames == 0 || n < *frames); n++ {
		if err := ctx.OnFrameStart(); err != nil {
			log.Fatal(err)
		}

		phase := int(time.Since(start) / *interval)
		raw := staging
		if raw == nil {
			raw = buf.HostBytes()
		}
		fillBytes(pool, raw, buf.Descriptor(), buf.Pitch(), phase)
		if ov != nil {
			ov.Draw(raw, int(buf.Pitch()), int(buf.Width()), int(buf.Height()), []string{
				p.Sprintf("%s %s", buf.API(), buf.Descriptor()),
				p.Sprintf("frame %d", n),
			})
		}
		if staging != nil {
			if err := cuda.CopyToDevice(buf.Data(), staging); err != nil {
				log.Fatalf("Device copy failed: %v", err)
			}
		}

		if err := ctx.OnFrameEnded(); err != nil {
			log.Fatal(err)
		}
	}

	elapsed := time.Since(start)
	st := buf.Stats()
	p.Printf("%d frames, %d skipped, %d recreated in %v (%.1f fps)\n",
		st.Frames, st.Skipped, st.Recreated, elapsed.Round(time.Millisecond),
		float64(st.Frames)/elapsed.Seconds())
}
