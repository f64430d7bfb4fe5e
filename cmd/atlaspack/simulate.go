package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/gogpu/atlas"
)

var (
	simSteps     int
	simSeed      uint64
	simFreeRatio float64
	simMaxSize   int
)

func init() {
	cmd := newSimulateCmd()
	cmd.Flags().IntVar(&simSteps, "steps", 0, "Number of alloc/free operations")
	cmd.Flags().Uint64Var(&simSeed, "seed", 0, "Random seed")
	cmd.Flags().Float64Var(&simFreeRatio, "free-ratio", 0, "Probability that a step frees a region")
	cmd.Flags().IntVar(&simMaxSize, "max-size", 0, "Largest requested region (power of two)")
	cmd.Flags().IntVar(&packSize, "size", 0, "Atlas size in pixels (power of two)")
	cmd.Flags().IntVar(&packMin, "min-region", 0, "Smallest region size (power of two)")
	rootCmd.AddCommand(cmd)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run random alloc/free churn against the allocator",
		Long: `The simulate command drives an allocator with a seeded random mix of
allocations and frees and reports how full the atlas got and how many nodes
each search examined.

Example:
  atlaspack simulate --size 4096 --min-region 4 --steps 200000 --seed 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applySimulateFlags(cmd, &cfg)
			res, err := runSimulate(cfg)
			if err != nil {
				return err
			}
			res.print(cmd.OutOrStdout())
			return nil
		},
	}
	return cmd
}

func applySimulateFlags(cmd *cobra.Command, c *packConfig) {
	flags := cmd.Flags()
	if flags.Changed("steps") {
		c.Simulate.Steps = simSteps
	}
	if flags.Changed("seed") {
		c.Simulate.Seed = simSeed
	}
	if flags.Changed("free-ratio") {
		c.Simulate.FreeRatio = simFreeRatio
	}
	if flags.Changed("max-size") {
		c.Simulate.MaxSize = simMaxSize
	}
	if flags.Changed("size") {
		c.Atlas.Size = packSize
	}
	if flags.Changed("min-region") {
		c.Atlas.MinRegionSize = packMin
	}
}

type simResult struct {
	Steps      int
	Allocs     int
	Failed     int
	Frees      int
	Live       int
	PeakLive   int
	Stats      atlas.AllocatorStats
	AvgScan    float64
	MaxScan    int
	Size       int
	MinSize    int
	MaxRequest int
}

func (r simResult) print(w io.Writer) {
	fmt.Fprintf(w, "Atlas %dx%d, regions %d..%d px, %d steps\n", r.Size, r.Size, r.MinSize, r.MaxRequest, r.Steps)
	fmt.Fprintf(w, "  allocations: %d ok, %d without space\n", r.Allocs, r.Failed)
	fmt.Fprintf(w, "  frees:       %d\n", r.Frees)
	fmt.Fprintf(w, "  live:        %d (peak %d)\n", r.Live, r.PeakLive)
	fmt.Fprintf(w, "  utilization: %.1f%%\n", 100*r.Stats.Utilization)
	fmt.Fprintf(w, "  scan steps:  %.2f avg, %d max\n", r.AvgScan, r.MaxScan)
}

// runSimulate is deterministic for a given configuration.
func runSimulate(c packConfig) (simResult, error) {
	sc := c.Simulate
	if sc.Steps < 0 {
		return simResult{}, fmt.Errorf("steps must be non-negative, got %d", sc.Steps)
	}
	if sc.FreeRatio < 0 || sc.FreeRatio > 1 {
		return simResult{}, fmt.Errorf("free ratio must be in [0, 1], got %g", sc.FreeRatio)
	}

	a, err := atlas.NewAllocator(c.Atlas.Size, atlas.WithMinSubTextureSize(c.Atlas.MinRegionSize))
	if err != nil {
		return simResult{}, err
	}
	defer a.Close()

	maxSize := min(sc.MaxSize, c.Atlas.Size)
	if _, err := a.SizeToLevel(maxSize); err != nil {
		return simResult{}, fmt.Errorf("max size: %w", err)
	}
	// Request sizes are powers of two in [MinSubTextureSize, maxSize].
	sizes := 0
	for s := a.MinSubTextureSize(); s <= maxSize; s <<= 1 {
		sizes++
	}

	rng := rand.New(rand.NewPCG(sc.Seed, sc.Seed^0x5851f42d4c957f2d))
	res := simResult{Steps: sc.Steps, Size: c.Atlas.Size, MinSize: a.MinSubTextureSize(), MaxRequest: maxSize}
	var live []int
	for i := 0; i < sc.Steps; i++ {
		if len(live) > 0 && rng.Float64() < sc.FreeRatio {
			k := rng.IntN(len(live))
			a.Free(live[k])
			live[k] = live[len(live)-1]
			live = live[:len(live)-1]
			res.Frees++
			continue
		}

		size := a.MinSubTextureSize() << rng.IntN(sizes)
		n, ok, err := a.AllocNode(size)
		if err != nil {
			return simResult{}, err
		}
		res.MaxScan = max(res.MaxScan, a.Stats().LastScanSteps)
		if !ok {
			res.Failed++
			continue
		}
		res.Allocs++
		live = append(live, n)
		res.PeakLive = max(res.PeakLive, len(live))
	}

	res.Live = len(live)
	res.Stats = a.Stats()
	if res.Stats.Searches > 0 {
		res.AvgScan = float64(res.Stats.TotalScanSteps) / float64(res.Stats.Searches)
	}
	atlas.Logger().Info("atlaspack: simulation done",
		"steps", res.Steps, "live", res.Live, "utilization", res.Stats.Utilization)
	return res, nil
}
