package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Session level (info)
		"Recording to %s (%.2f frames/s, quality %d)": "%s に録画中 (%.2f フレーム/秒, 品質 %d)",
		"Recording stopped: %d frames":                "録画を停止しました: %d フレーム",
		"Recording failed: %s":                        "録画に失敗しました: %s",
		"Assembling %d frames in %d segments":         "%d フレーム (%d セグメント) から動画を作成中",
		"Video saved to %s (%d bytes)":                "動画を %s に保存しました (%d バイト)",
		"Session already finalized":                   "セッションは既に確定済みです",
		"Rebuilding session index from %s":            "%s からセッションインデックスを再構築中",
		"Frames directory %s already cleaned up":      "フレームディレクトリ %s は既に削除されています",
		"Interrupted, stopping recording...":          "中断されました。録画を停止中...",
		"Summary written to %s":                       "サマリーを %s に書き込みました",
		"Failed to write summary: %s":                 "サマリーの書き込みに失敗しました: %s",

		// Capture component
		"Captured %d frames":         "%d フレームをキャプチャしました",
		"Recording paused":           "録画を一時停止しました",
		"Recording resumed after %s": "%s 後に録画を再開しました",
		"New segment %d at %s":       "新しいセグメント %d (%s)",
		"Region %s clamped to %s":    "領域 %s を %s に補正しました",

		// Tracker component
		"Tracked window not found, keeping %s": "追跡ウィンドウが見つかりません。%s を維持します",
		"Window moved to %s at %d,%d":          "ウィンドウが %s (%d,%d) に移動しました",
		"Window lookup failed: %s":             "ウィンドウの取得に失敗しました: %s",

		// Control
		"File watcher unavailable, polling markers: %s": "ファイル監視を利用できません。マーカーをポーリングします: %s",
		"Watcher error: %s":                             "監視エラー: %s",
		"Pause toggled by %s: %t":                       "%s により一時停止を切り替えました: %t",
		"Stop requested by %s":                          "%s により停止が要求されました",
		"Failed to clear control markers: %s":           "制御マーカーの削除に失敗しました: %s",

		// Codec negotiation
		"Trying codec %s":                      "コーデック %s を試行中",
		"Codec %s failed: %s":                  "コーデック %s は失敗しました: %s",
		"Using codec %s for %s":                "コーデック %s を使用します: %s",
		"Failed to remove partial file %s: %s": "不完全なファイル %s の削除に失敗しました: %s",

		// Assembly
		"Canvas resolution %s":                      "キャンバス解像度 %s",
		"Segment %d: %s scaled %.3f, padding %d,%d": "セグメント %d: %s を %.3f 倍に拡縮、余白 %d,%d",
		"Skipping segment %d: %s":                   "セグメント %d をスキップします: %s",
		"Skipping frame %s: %s":                     "フレーム %s をスキップします: %s",
		"Removed %d frame files":                    "%d 個のフレームファイルを削除しました",
		"Detected %s in %s container":               "%s を検出しました (%s コンテナ)",

		// Warnings
		"Failed to grab screen: %s":            "画面のキャプチャに失敗しました: %s",
		"Failed to save frame: %s":             "フレームの保存に失敗しました: %s",
		"Failed to save session index: %s":     "セッションインデックスの保存に失敗しました: %s",
		"Could not probe %s: %s":               "%s を解析できませんでした: %s",
		"Failed to remove output %s: %s":       "出力ファイル %s の削除に失敗しました: %s",
		"Failed to remove some frames: %s":     "一部のフレームの削除に失敗しました: %s",
		"Failed to remove frame directory: %s": "フレームディレクトリの削除に失敗しました: %s",
		"Close after failure: %s":              "失敗後のクローズ: %s",

		// Session
		"Found %d frames of an earlier session in %s": "%[2]s に以前のセッションのフレームが %[1]d 枚残っています",

		// Errors
		"No frames were captured":    "フレームがキャプチャされませんでした",
		"Failed to prepare %s: %s":   "%s の準備に失敗しました: %s",
		"Failed to scan frames: %s":  "フレームの走査に失敗しました: %s",
		"Failed to create video: %s": "動画の作成に失敗しました: %s",
	})
}
