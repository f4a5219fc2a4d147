// Command triangle opens a window and renders a colored triangle with the
// vkframe frame loop until the window is closed. Run it from this
// directory after go generate so that the compiled shaders are found.
package main

//go:generate glslc shaders/shader.vert -o shaders/vert.spv
//go:generate glslc shaders/shader.frag -o shaders/frag.spv

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	lin "github.com/xlab/linmath"

	"github.com/andewx/vkframe"
	"github.com/andewx/vkframe/driver/vulkan"
)

func init() {
	// glfw must be driven from the main thread.
	runtime.LockOSThread()
}

type options struct {
	config      string
	verbose     bool
	validation  bool
	frames      int
	presentMode string
	animate     bool
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:          "triangle",
		Short:        "Render a triangle with the vkframe frame loop",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.config, "config", "c", "", "YAML or TOML config file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug messages")
	flags.BoolVar(&opts.validation, "validation", false, "enable the Vulkan validation layer")
	flags.IntVar(&opts.frames, "frames", 0, "exit after this many frames (0 runs until the window closes)")
	flags.StringVar(&opts.presentMode, "present-mode", "", "preferred present mode (fifo, mailbox, immediate, fifo_relaxed)")
	flags.BoolVar(&opts.animate, "animate", false, "move the triangle in a circle")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(opts options) (err error) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	vkframe.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := vkframe.DefaultConfig()
	if opts.config != "" {
		if cfg, err = vkframe.LoadConfig(opts.config); err != nil {
			return err
		}
	}
	if opts.validation {
		cfg.Validation = true
	}
	if opts.presentMode != "" {
		cfg.PresentMode = opts.presentMode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "glfw init")
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.AppName, nil, nil)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	defer window.Destroy()

	drv, err := vulkan.Open(vulkan.Config{
		AppName:            cfg.AppName,
		InstanceExtensions: window.GetRequiredInstanceExtensions(),
		Validation:         cfg.Validation,
	})
	if err != nil {
		return err
	}
	defer drv.Close()

	surface, err := drv.CreateWindowSurface(window)
	if err != nil {
		return err
	}
	defer drv.DestroySurface(surface)

	g, err := vkframe.NewGraphics(drv, surface, vulkan.NewWindow(window), cfg)
	if err != nil {
		return err
	}
	defer g.Destroy()

	window.SetFramebufferSizeCallback(func(*glfw.Window, int, int) {
		g.SurfaceResized()
	})

	for n := 0; !window.ShouldClose(); n++ {
		if opts.frames > 0 && n >= opts.frames {
			break
		}
		glfw.PollEvents()
		if !g.RenderBegin() {
			continue
		}
		if opts.animate {
			t := float32(n) / 60
			g.DrawAt(vkframe.Point(lin.Vec2{
				0.25 * float32(math.Cos(float64(t))),
				0.25 * float32(math.Sin(float64(t))),
			}))
		} else {
			g.Draw()
		}
		g.RenderEnd()
	}

	s := g.Stats()
	fmt.Fprintf(os.Stderr, "%d frames, %d skipped, %d recreations, avg %v (%.1f fps)\n",
		s.Frames, s.Skipped, s.Recreations, s.Average(), s.FPS())
	return nil
}
