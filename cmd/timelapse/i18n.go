// Package main provides localization for the timelapse CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":            "出力先",
		"Capture":           "キャプチャ",
		"Video and Quality": "動画と品質",
		"Debug":             "デバッグ",
		"Logging":           "ログ",

		// Commands
		"Record the screen as a timelapse video":                  "画面をタイムラプス動画として記録",
		"Capture the screen until stopped, then create the video": "停止するまで画面をキャプチャし、動画を作成",
		"Create a video from an existing frames directory":        "既存のフレームディレクトリから動画を作成",
		"Stop a running recording":                                "実行中の録画を停止",
		"Pause a running recording":                               "実行中の録画を一時停止",
		"Resume a paused recording":                               "一時停止中の録画を再開",

		// Output flags
		"YAML configuration file":                                    "YAML設定ファイル",
		"Output video file name":                                     "出力動画のファイル名",
		"Directory for the video and temporary frames":               "動画と一時フレームのディレクトリ",
		"Directory for captured frames (default: <output-dir>/temp)": "キャプチャしたフレームのディレクトリ（デフォルト: <output-dir>/temp）",
		"Output execution summary to file (Markdown format)":         "実行サマリーをファイルに出力（Markdown形式）",

		// Capture flags
		"Seconds between captures":          "キャプチャ間隔（秒）",
		"Capture region as x,y,w,h or JSON": "キャプチャ領域（x,y,w,h またはJSON）",
		"Follow the active window":          "アクティブウィンドウを追跡",

		// Encoding flags
		"Output video frame rate":                                          "出力動画のフレームレート",
		"Quality (1-100, higher is better)":                                "品質（1-100、高いほど高品質）",
		"Preferred codec (h264-hw, h264, ffv1, mjpeg)":                     "優先コーデック（h264-hw, h264, ffv1, mjpeg）",
		"Never enlarge smaller segments":                                   "小さいセグメントを拡大しない",
		"Path to ffmpeg executable (falls back to FFMPEG_PATH, then PATH)": "ffmpeg実行ファイルのパス（未指定時は FFMPEG_PATH、次に PATH）",

		// Debug flags
		"Enable debug output":        "デバッグ出力を有効化",
		"Directory for debug output": "デバッグ出力のディレクトリ",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",
	})
}
