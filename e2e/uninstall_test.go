//go:build e2e

package e2e

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func uninstallTests() {
	It("purges every managed install and the launcher aliases", func() {
		out, err := pm.Run("uninstall", "--purge", "--yes")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("purged"))

		Expect(filepath.Join(pm.InstallDir(), "PythonCore-3.13.0-64")).NotTo(BeADirectory())
		Expect(filepath.Join(pm.GlobalDir(), "python3.13.exe")).NotTo(BeAnExistingFile())
	})

	It("reports no installs afterward", func() {
		out, err := pm.Run("list")
		Expect(err).To(HaveOccurred())
		Expect(out).To(ContainSubstring("no Python installs"))
	})
}
