//go:build e2e

package e2e

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func writeScript(dir, name, shebang string) (string, error) {
	path := filepath.Join(dir, name)
	return path, os.WriteFile(path, []byte(shebang+"\necho hi\n"), 0644)
}

func execTests() {
	It("dispatches a #!/usr/bin/env python3.13 script to the alias it names", func() {
		dir := GinkgoT().TempDir()
		script, err := writeScript(dir, "run.py", "#!/usr/bin/env python3.13")
		Expect(err).NotTo(HaveOccurred())

		out, err := pm.Run("exec", script)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("python-3.13.0"))
	})

	It("dispatches a bare #!python3.13w script to the windowed executable", func() {
		dir := GinkgoT().TempDir()
		script, err := writeScript(dir, "run.pyw", "#!python3.13w")
		Expect(err).NotTo(HaveOccurred())

		out, err := pm.Run("exec", script)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("pythonw-3.13.0"))
	})

	It("fails with a usage error for a missing script", func() {
		_, err := pm.Run("exec", filepath.Join(GinkgoT().TempDir(), "missing.py"))
		Expect(err).To(HaveOccurred())
	})
}
