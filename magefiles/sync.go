package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Sync groups targets that run the built CLI against the working directories.
type Sync mg.Namespace

func kbSync(args ...string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Articles syncs Freshdesk articles into the default vector store.
func (Sync) Articles() error {
	return kbSync("sync", "articles")
}

// Files syncs kb_files/ with keys prefixed kb_.
func (Sync) Files() error {
	return kbSync("sync", "dir", "--dir", "kb_files", "--prefix", "kb")
}

// Manuals syncs manuals/ with keys prefixed manual_. The vector store comes
// from KB_SYNC_MANUALS_VECTOR_STORE_ID when set.
func (Sync) Manuals() error {
	args := []string{"sync", "dir", "--dir", "manuals", "--prefix", "manual"}
	if vs := os.Getenv("KB_SYNC_MANUALS_VECTOR_STORE_ID"); vs != "" {
		args = append(args, "--vector-store", vs)
	}
	return kbSync(args...)
}

// All runs every sync target in order.
func (Sync) All() {
	mg.SerialDeps(Sync.Articles, Sync.Files, Sync.Manuals)
}
