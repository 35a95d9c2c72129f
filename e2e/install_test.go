//go:build e2e

package e2e

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func installTests() {
	It("reports no installs before anything is installed", func() {
		out, err := pm.Run("list")
		Expect(err).To(HaveOccurred())
		Expect(out).To(ContainSubstring("no Python installs"))
	})

	It("installs the runtime the fake feed advertises", func() {
		out, err := pm.Run("install", "3.13")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("installed PythonCore-3.13.0-64"))

		data, readErr := os.ReadFile(filepath.Join(pm.InstallDir(), "PythonCore-3.13.0-64", "python.exe"))
		Expect(readErr).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("python-3.13.0"))
	})

	It("lists the install afterward", func() {
		out, err := pm.Run("list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("3.13"))
	})

	It("synthesizes the alias pair in the global launcher directory", func() {
		Expect(filepath.Join(pm.GlobalDir(), "python3.13.exe")).To(BeAnExistingFile())
		Expect(filepath.Join(pm.GlobalDir(), "python3.13.exe.__target__")).To(BeAnExistingFile())
	})

	It("treats a second install of the same version as already up to date", func() {
		out, err := pm.Run("install", "3.13")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("already installed and up to date"))
	})
}
