// Package similar finds near-duplicate frames, the bursts and bracket
// stacks a culling pass wants to see side by side. Each decoded preview
// contributes a 64-bit difference hash; grouping is greedy over Hamming
// distance, seeded in sorted path order.
package similar
