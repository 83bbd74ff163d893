// Package tuning loads tuning documents and merges them into a detector.
//
// A tuning document is the JSON file exported by the offline trainer:
//
//	{
//	  "patterns":          {"주민등록번호": "\\d{6}-\\d{7}", "employee-id": "EMP-\\d{6}"},
//	  "sensitiveKeywords": {"기업기밀": ["기밀", "대외비"]},
//	  "mlFeatures":        {"topLeakKeywords": [["주민번호", 1.42], ["비밀번호", 1.17]],
//	                        "modelType": "logistic"},
//	  "version":           "1.0",
//	  "exportedAt":        "2025-11-20T09:00:00"
//	}
//
// Every key is optional. Loading is best-effort: a missing or malformed
// document leaves the detector on its current tables and is only logged.
//
// # Sources
//
//   - FileSource reads a local file
//   - HTTPSource fetches a URL
//   - MemorySource serves a fixed document (tests, embedding)
//
// # Loader
//
// The Loader runs the first load in the background so the detector is usable
// immediately. Ready reports when that first attempt has finished. The
// Loader can also watch a file source for changes and refresh on a cron
// schedule:
//
//	loader := tuning.NewLoader(det, tuning.NewFileSource("tuning.json"), tuning.LoaderOptions{
//		Watch:           true,
//		RefreshSchedule: "*/15 * * * *",
//	})
//	if err := loader.Start(ctx); err != nil {
//		return err
//	}
//	defer loader.Stop()
package tuning
