package main

import (
	"flag"
	"log"
	"syscall"
)

// 向监控中的 orderinsight 进程发送 SIGHUP, 使其重新打开日志文件
func main() {
	pid := flag.Int("pid", 0, "orderinsight -watch 进程号")
	flag.Parse()

	if *pid <= 0 {
		log.Fatal("需要 -pid 参数")
	}

	if err := syscall.Kill(*pid, syscall.SIGHUP); err != nil {
		log.Fatal("Failed to send SIGHUP:", err)
	}
}
