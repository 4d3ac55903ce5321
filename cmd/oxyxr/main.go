// Command oxyxr drives hand-pose rigs outside a headset: it mirrors captured poses, runs
// scenario scripts and serves a live rig that reloads pose assets as they change.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/engine"
	"github.com/Carmen-Shannon/oxy-xr/engine/config"
	"github.com/Carmen-Shannon/oxy-xr/engine/loader"
	"github.com/Carmen-Shannon/oxy-xr/engine/pose"
	"github.com/Carmen-Shannon/oxy-xr/engine/rig"
	"github.com/Carmen-Shannon/oxy-xr/engine/scenario"
)

const usage = `usage: oxyxr <command> [flags]

commands:
  import  convert the skin of a .gltf/.glb hand model into a pose asset
  mirror  write the opposite-hand version of a pose asset
  run     run a scenario script against a rig
  serve   tick a rig at the configured rate until interrupted
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "import":
		err = importCmd(os.Args[2:])
	case "mirror":
		err = mirrorCmd(os.Args[2:])
	case "run":
		err = runCmd(os.Args[2:])
	case "serve":
		err = serveCmd(os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "oxyxr: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("oxyxr %s: %v", os.Args[1], err)
	}
}

func importCmd(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	flagIn := fs.String("in", "", "glTF or GLB hand model")
	flagHand := fs.String("hand", "right", "Hand the model belongs to (left or right)")
	flagName := fs.String("name", "", "Pose name (default: the model file name)")
	flagObject := fs.String("object", "", "Grabbable the pose belongs to (default: derived from the name)")
	flagDir := fs.String("dir", "poses", "Directory the pose asset is written to")
	fs.Parse(args)

	if *flagIn == "" {
		fs.PrintDefaults()
		return fmt.Errorf("-in is required")
	}
	h, err := pose.ParseHandedness(*flagHand)
	if err != nil {
		return err
	}

	asset, err := loader.ImportGLTFPose(*flagIn, h, *flagName)
	if err != nil {
		return err
	}
	asset.Object = *flagObject

	out, err := loader.NewLoader(loader.WithDir(*flagDir)).Save(asset, "")
	if err != nil {
		return err
	}
	log.Printf("[Import] %s -> %s (%s, %d joints)", *flagIn, out, asset.Hand, asset.Pose.JointCount())
	return nil
}

func mirrorCmd(args []string) error {
	fs := flag.NewFlagSet("mirror", flag.ExitOnError)
	flagIn := fs.String("in", "", "Captured pose asset to mirror")
	flagOut := fs.String("out", "", "Destination file (default: next to -in, named after the mirrored pose)")
	flagName := fs.String("name", "", "Name of the mirrored pose (default: swaps the _left/_right suffix)")
	fs.Parse(args)

	if *flagIn == "" {
		fs.PrintDefaults()
		return fmt.Errorf("-in is required")
	}

	src, err := loader.LoadPose(*flagIn)
	if err != nil {
		return err
	}
	dst := mirrorAsset(src, *flagName)

	out := *flagOut
	if out == "" {
		l := loader.NewLoader(loader.WithDir(filepath.Dir(*flagIn)))
		if out, err = l.Save(dst, ""); err != nil {
			return err
		}
	} else if err := loader.SavePose(out, dst); err != nil {
		return err
	}
	log.Printf("[Mirror] %s (%s) -> %s (%s) at %s", src.Pose.Name, src.Hand, dst.Pose.Name, dst.Hand, out)
	return nil
}

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	flagConfig := fs.String("config", "", "YAML config file (default: built-in defaults)")
	flagScript := fs.String("script", "", "Tengo scenario script")
	flagTimeout := fs.Duration("timeout", 0, "Abort the script after this long (0 for no limit)")
	fs.Parse(args)

	if *flagScript == "" {
		fs.PrintDefaults()
		return fmt.Errorf("-script is required")
	}

	cfg, err := loadConfig(*flagConfig)
	if err != nil {
		return err
	}
	l, err := openLoader(cfg.PoseDir)
	if err != nil {
		return err
	}
	r, err := buildRig(cfg, l)
	if err != nil {
		return err
	}
	defer r.Close()

	s, err := scenario.LoadScenario(*flagScript, r, scenario.WithFadeDuration(cfg.Fade.Duration))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *flagTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *flagTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.Run(ctx); err != nil {
		return err
	}
	st := r.Stats()
	log.Printf("[Scenario] %s finished in %v: %d ticks, %d held, %d transitions active",
		s.Name(), time.Since(start).Round(time.Millisecond), s.Ticks(), st.Held, st.ActiveTransitions)
	return nil
}

func serveCmd(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	flagConfig := fs.String("config", "", "YAML config file (default: built-in defaults)")
	fs.Parse(args)

	cfg, err := loadConfig(*flagConfig)
	if err != nil {
		return err
	}
	l, err := openLoader(cfg.PoseDir)
	if err != nil {
		return err
	}
	r, err := buildRig(cfg, l)
	if err != nil {
		return err
	}
	defer r.Close()

	eng := engine.NewEngine(r,
		engine.WithTickRate(cfg.TickRate),
		engine.WithProfiling(cfg.Profile),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Watch {
		events, err := loader.Watch(ctx, l)
		if err != nil {
			return fmt.Errorf("watch %s: %w", cfg.PoseDir, err)
		}
		go syncOnReload(events, r, l, cfg.TransitionDuration)
	}

	go func() {
		<-ctx.Done()
		log.Printf("[Engine] shutting down")
		eng.Quit()
	}()

	log.Printf("[Engine] serving rig %q at %v ticks/s", r.Name(), cfg.TickRate)
	eng.Run()
	return nil
}

// syncOnReload refreshes the rig's grabbables after each successful pose reload.
func syncOnReload(events <-chan loader.ReloadEvent, r rig.Rig, l loader.Loader, duration float32) {
	for ev := range events {
		if ev.Err != nil {
			log.Printf("[Loader] reload %s failed: %v", ev.Path, ev.Err)
			continue
		}
		if ev.Removed {
			log.Printf("[Loader] %s removed, its grabbable keeps the last pose", ev.Name)
			continue
		}
		if _, err := rig.SyncPoses(r, l, duration); err != nil {
			log.Printf("[Rig] sync after reloading %s: %v", ev.Name, err)
		}
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
