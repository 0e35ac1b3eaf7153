// 包 version：构建期注入的版本信息
package version

// Commit：构建时通过 -ldflags 注入的提交哈希；默认 dev
var Commit = "dev"
