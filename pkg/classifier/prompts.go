package classifier

import "fmt"

const analysisPrompt = `Analisis laporan warga berikut: %q
Tugas:
1. Tentukan kategori (pilih satu: Infrastruktur, Sosial, Pelayanan, Keamanan, Kesehatan, Lingkungan).
2. Analisis sentimen (Positif, Negatif, Netral).
3. Ambil 3 sampai 5 kata kunci utama.
Balas hanya dengan JSON:
{"kategori": "String", "sentimen": "String", "keywords": ["String"]}`

const priorityPrompt = `Tentukan prioritas laporan berikut berdasarkan kata kunci di dalamnya.
Pilih hanya salah satu dari: tinggi, sedang, rendah.
Balas hanya dengan JSON {"priority": "..."}.
Deskripsi: %q`

func buildAnalysisPrompt(description string) string {
	return fmt.Sprintf(analysisPrompt, description)
}

func buildPriorityPrompt(description string) string {
	return fmt.Sprintf(priorityPrompt, description)
}
