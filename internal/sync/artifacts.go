package sync

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// fileInfo describes one artifact file for matching and conflict
// comparison. The hash is computed per sync and never persisted.
type fileInfo struct {
	Hash     string
	Size     int64
	Modified time.Time
	Path     string
}

func (fi fileInfo) snapshot() map[string]string {
	return map[string]string{
		"hash":     fi.Hash,
		"size":     fmt.Sprintf("%d", fi.Size),
		"modified": fi.Modified.Format(time.RFC3339),
		"path":     fi.Path,
	}
}

// hashFile streams the whole file through MD5. MD5 is the deployment-wide
// artifact identity hash; it is not used for integrity.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func getFileInfo(path string) (fileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return fileInfo{}, err
	}
	hash, err := hashFile(path)
	if err != nil {
		return fileInfo{}, err
	}
	return fileInfo{Hash: hash, Size: stat.Size(), Modified: stat.ModTime(), Path: path}, nil
}

// listArtifacts returns the names of regular files in dir. A missing
// directory is an empty artifact set, not an error.
func listArtifacts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// buildHashIndex hashes every artifact in dir concurrently and returns a
// content-hash → filename index. Hash collisions across distinct names keep
// the first name encountered; either is a valid dedup witness.
func buildHashIndex(dir string) (map[string]string, error) {
	names, err := listArtifacts(dir)
	if err != nil {
		return nil, err
	}

	hashes := make([]string, len(names))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, name := range names {
		g.Go(func() error {
			h, err := hashFile(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("hashing %s: %w", name, err)
			}
			hashes[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := make(map[string]string, len(names))
	for i, name := range names {
		if _, ok := index[hashes[i]]; !ok {
			index[hashes[i]] = name
		}
	}
	return index, nil
}

// copyFilePreserveMtime copies src to dst and carries the source
// modification time over, so repeated syncs see stable metadata.
func copyFilePreserveMtime(src, dst string) error {
	stat, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Chtimes(dst, stat.ModTime(), stat.ModTime())
}

// remoteVariantName derives the keep-both filename: stem_remote + ext.
func remoteVariantName(filename string) string {
	ext := filepath.Ext(filename)
	stem := filename[:len(filename)-len(ext)]
	return stem + "_remote" + ext
}

// syncArtifactsBidirectional copies artifacts missing on each side, skipping
// any whose content already exists on the target under any name.
func (e *Engine) syncArtifactsBidirectional(result *Result) {
	e.copyMissingArtifacts(e.localPDFDir, e.remotePDFDir, result, "pdf_copied_remote", "to remote")
	e.copyMissingArtifacts(e.remotePDFDir, e.localPDFDir, result, "pdf_copied_local", "to local (from remote)")
}

func (e *Engine) copyMissingArtifacts(srcDir, dstDir string, result *Result, event, direction string) {
	names, err := listArtifacts(srcDir)
	if err != nil {
		result.addError("listing artifacts in %s: %v", srcDir, err)
		return
	}
	if len(names) == 0 {
		return
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		result.addError("creating artifact directory %s: %v", dstDir, err)
		return
	}

	dstIndex, err := buildHashIndex(dstDir)
	if err != nil {
		result.addError("indexing artifacts in %s: %v", dstDir, err)
		return
	}

	for _, name := range names {
		dst := filepath.Join(dstDir, name)
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		src := filepath.Join(srcDir, name)
		hash, err := hashFile(src)
		if err != nil {
			result.addError("hashing %s: %v", src, err)
			continue
		}
		if _, exists := dstIndex[hash]; exists {
			// Same bytes already stored under another name.
			continue
		}
		if err := copyFilePreserveMtime(src, dst); err != nil {
			result.addError("copying %s %s: %v", name, direction, err)
			continue
		}
		dstIndex[hash] = name
		result.Changes.PDFsCopied++
		e.logf(event, "Copied PDF '%s' %s", name, direction)
	}
}

// pushArtifactsToRemote copies every local artifact absent by name on the
// remote. Used by the bootstrap clone, where the remote starts empty.
func (e *Engine) pushArtifactsToRemote(result *Result) {
	names, err := listArtifacts(e.localPDFDir)
	if err != nil {
		result.addError("listing artifacts in %s: %v", e.localPDFDir, err)
		return
	}
	for _, name := range names {
		dst := filepath.Join(e.remotePDFDir, name)
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if err := copyFilePreserveMtime(filepath.Join(e.localPDFDir, name), dst); err != nil {
			result.addError("copying %s to remote: %v", name, err)
			continue
		}
		result.Changes.PDFsCopied++
		e.logf("pdf_copied_remote", "Copied PDF '%s' to remote.", name)
	}
}
