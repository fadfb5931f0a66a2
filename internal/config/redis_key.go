package config

import "fmt"

type RedisKeyStruct struct{}

// ExamMonitorChannel returns the Redis PubSub channel carrying answer events for an exam.
func (r *RedisKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}

var RedisKey = &RedisKeyStruct{}
