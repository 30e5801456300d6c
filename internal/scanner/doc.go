// Package scanner measures directory trees.
//
// Scan sizes the immediate child directories of a root, sorts and truncates
// them, and keeps a grand total over every child it found. LargestFiles
// reports the biggest regular files below a root. Both walk subtrees with
// fastwalk and absorb errors below the root: an unreadable subdirectory or a
// file that vanished mid-walk simply contributes nothing.
package scanner
