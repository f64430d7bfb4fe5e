// Command atlaspack packs a directory of images into a single texture atlas
// and exercises the quadtree allocator with synthetic workloads.
//
// Usage:
//
//	atlaspack pack ./sprites --size 2048 --out sprites.png --manifest sprites.json
//	atlaspack simulate --size 4096 --steps 100000 --seed 7
//	atlaspack version
package main

func main() {
	execute()
}
