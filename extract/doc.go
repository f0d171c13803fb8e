// Package extract turns PDF and OOXML workbook bytes into per-page text.
//
// PDF files are parsed with pdfcpu; the text showing operators of every page
// content stream are decoded by a small scanner. Workbooks are read with
// excelize, one page per worksheet. Images and CSV files are handled by the
// ingestion pipeline itself and are rejected here.
package extract
